package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign computes the hex HMAC-SHA256 of "orderRef|paymentRef" under the
// gateway secret, the scheme the gateway uses to sign its callbacks.
func Sign(orderRef, paymentRef, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderRef + "|" + paymentRef))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether a callback signature is authentic.
// Comparison is constant-time.
func VerifySignature(orderRef, paymentRef, signature, secret string) bool {
	expected := Sign(orderRef, paymentRef, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
