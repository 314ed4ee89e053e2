// Package event defines the order notifications published through the outbox.
package event

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TypeOrderCreated       = "new_order"
	TypeOrderStatusChanged = "order_status"
	TypeLocationUpdate     = "location_update"
)

// OrderEvent is the payload fanned out to subscribers.
type OrderEvent struct {
	Type          string          `json:"type"`
	OrderID       uuid.UUID       `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	VendorID      uuid.UUID       `json:"vendor_id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Note          *string         `json:"note,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// OrderChannel is the channel order trackers subscribe to.
func OrderChannel(orderID string) string {
	return fmt.Sprintf("order:%s", orderID)
}

// VendorChannel is the channel a vendor dashboard subscribes to.
func VendorChannel(vendorID string) string {
	return fmt.Sprintf("vendor:%s", vendorID)
}

// Channels returns the channels an event is delivered to.
func (e OrderEvent) Channels() []string {
	if e.Type == TypeOrderCreated {
		return []string{VendorChannel(e.VendorID.String()), OrderChannel(e.OrderID.String())}
	}

	return []string{OrderChannel(e.OrderID.String())}
}
