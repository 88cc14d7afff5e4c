package booking

import (
	"crypto/rand"
	"fmt"
)

// refAlphabet excludes 0/O and 1/I so references survive being read over
// the phone or typed from a printed ticket.
const refAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// NewBookingRef generates the human-facing reference assigned when a
// booking reaches Confirmed, e.g. "BK-7GQ2M4XC".
func NewBookingRef() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate booking ref: %w", err)
	}
	for i, b := range buf {
		buf[i] = refAlphabet[int(b)%len(refAlphabet)]
	}
	return "BK-" + string(buf), nil
}
