package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	legal := [][2]Status{
		{StatusPaymentPending, StatusConfirmed},
		{StatusPaymentPending, StatusCancelled},
		{StatusPaymentPending, StatusPaymentFailed},
		{StatusConfirmed, StatusCheckedIn},
		{StatusConfirmed, StatusCancelled},
	}
	for _, tr := range legal {
		assert.True(t, CanTransition(tr[0], tr[1]), "%s -> %s should be legal", tr[0], tr[1])
	}

	illegal := [][2]Status{
		{StatusCancelled, StatusConfirmed},
		{StatusCheckedIn, StatusCancelled},
		{StatusPaymentFailed, StatusConfirmed},
		{StatusPaymentPending, StatusCheckedIn},
		{StatusConfirmed, StatusPaymentPending},
	}
	for _, tr := range illegal {
		assert.False(t, CanTransition(tr[0], tr[1]), "%s -> %s should be illegal", tr[0], tr[1])
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.False(t, StatusPaymentPending.Terminal())
	assert.False(t, StatusConfirmed.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusCheckedIn.Terminal())
	assert.True(t, StatusPaymentFailed.Terminal())
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusConfirmed.Valid())
	assert.False(t, Status("Pending").Valid())
	assert.False(t, Status("").Valid())
}
