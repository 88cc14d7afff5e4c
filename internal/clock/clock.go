// Package clock abstracts wall-clock access so that hold expiry and
// cancellation-cutoff logic can be tested against a fixed instant.
package clock

import "time"

// Clock supplies the current time to services that make time-based
// decisions.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem returns a clock backed by time.Now in UTC.
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

type fixedClock struct {
	now time.Time
}

// NewFixed returns a clock that always reports the same instant.  Tests
// use it to pin TTL and cutoff comparisons.
func NewFixed(t time.Time) Clock {
	return fixedClock{now: t.UTC()}
}

func (f fixedClock) Now() time.Time {
	return f.now
}
