package model

// Status is the lifecycle state of a booking.  The stored status is the
// sole source of truth for which transitions are legal; every mutation
// path consults the central transition table below instead of re-deriving
// the rules at the call site.
type Status string

const (
	StatusPaymentPending Status = "PaymentPending"
	StatusConfirmed      Status = "Confirmed"
	StatusCancelled      Status = "Cancelled"
	StatusCheckedIn      Status = "CheckedIn"
	StatusPaymentFailed  Status = "PaymentFailed"
)

// transitions is the complete set of legal status moves.  Absent states
// are terminal.
var transitions = map[Status][]Status{
	StatusPaymentPending: {StatusConfirmed, StatusCancelled, StatusPaymentFailed},
	StatusConfirmed:      {StatusCheckedIn, StatusCancelled},
}

// CanTransition reports whether a booking may move from one status to
// another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a status admits no further transitions.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPaymentPending, StatusConfirmed, StatusCancelled, StatusCheckedIn, StatusPaymentFailed:
		return true
	}
	return false
}
