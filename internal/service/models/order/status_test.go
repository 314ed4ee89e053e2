package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusConfirmed, StatusPacked, true},
		{StatusPacked, StatusShipped, true},
		{StatusShipped, StatusOutForDelivery, true},
		{StatusOutForDelivery, StatusDelivered, true},
		{StatusPending, StatusShipped, true},
		{StatusShipped, StatusPacked, false},
		{StatusPending, StatusPending, false},
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusPacked, StatusCancelled, false},
		{StatusShipped, StatusCancelled, false},
		{StatusCancelled, StatusCancelled, false},
		{StatusDelivered, StatusReturned, true},
		{StatusDelivered, StatusRefunded, true},
		{StatusPending, StatusRefunded, true},
		{StatusDelivered, StatusShipped, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusReturned, StatusRefunded, false},
		{StatusRefunded, StatusReturned, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("out_for_delivery")
	require.NoError(t, err)
	assert.Equal(t, StatusOutForDelivery, st)

	_, err = ParseStatus("lost")
	assert.Error(t, err)
}

func TestInitialPaymentStatus(t *testing.T) {
	assert.Equal(t, PaymentStatusCOD, InitialPaymentStatus("cod"))
	assert.Equal(t, PaymentStatusPending, InitialPaymentStatus("card"))
}
