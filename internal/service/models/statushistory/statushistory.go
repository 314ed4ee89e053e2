package statushistory

import (
	"time"

	"github.com/google/uuid"
)

// Note attached to the first ledger entry of every order.
const NoteOrderPlaced = "Order placed"

// StatusHistory is one append-only ledger entry of an order status change.
type StatusHistory struct {
	ID        uuid.UUID  `json:"id"`
	OrderID   uuid.UUID  `json:"order_id"`
	Status    string     `json:"status"`
	Note      *string    `json:"note,omitempty"`
	ChangedBy *uuid.UUID `json:"changed_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
