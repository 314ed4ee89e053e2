package order

import "fmt"

// Status is the order lifecycle state.
type Status string

const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusPacked         Status = "packed"
	StatusShipped        Status = "shipped"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
	StatusReturned       Status = "returned"
	StatusRefunded       Status = "refunded"
)

// happyPath is the linear fulfilment sequence.
var happyPath = []Status{
	StatusPending,
	StatusConfirmed,
	StatusPacked,
	StatusShipped,
	StatusOutForDelivery,
	StatusDelivered,
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus parses a status value.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusConfirmed, StatusPacked, StatusShipped, StatusOutForDelivery,
		StatusDelivered, StatusCancelled, StatusReturned, StatusRefunded:
		return st, nil
	default:
		return "", fmt.Errorf("unknown order status %q", s)
	}
}

// IsTerminal reports whether no further transitions are modelled from s.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusReturned || s == StatusRefunded
}

// Cancellable reports whether an order in status s may be cancelled.
func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) happyIndex() int {
	for i, st := range happyPath {
		if st == s {
			return i
		}
	}

	return -1
}

// CanTransition reports whether the transition table allows moving from s to next.
func (s Status) CanTransition(next Status) bool {
	if s.IsTerminal() || s == next {
		return false
	}

	switch next {
	case StatusCancelled:
		return s.Cancellable()
	case StatusReturned, StatusRefunded:
		return true
	}

	from, to := s.happyIndex(), next.happyIndex()
	if from < 0 || to < 0 {
		return false
	}

	return to > from
}

// PaymentStatus is loosely coupled to the order status.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
	PaymentStatusCOD      PaymentStatus = "cod"
)

func (p PaymentStatus) String() string {
	return string(p)
}

// ParsePaymentStatus parses a payment status value.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch ps := PaymentStatus(s); ps {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded, PaymentStatusCOD:
		return ps, nil
	default:
		return "", fmt.Errorf("unknown payment status %q", s)
	}
}

// InitialPaymentStatus returns the payment status an order starts with.
func InitialPaymentStatus(paymentMethod string) PaymentStatus {
	if paymentMethod == PaymentMethodCOD {
		return PaymentStatusCOD
	}

	return PaymentStatusPending
}
