package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/corray333/backend-labs/grocery/internal/service/models/catalog"
)

// CreateOrderModel is a checkout request for a single vendor.
type CreateOrderModel struct {
	VendorID          uuid.UUID
	Items             []catalog.LineRequest
	DeliveryAddressID uuid.UUID
	PaymentMethod     string
	CouponCode        *string
	CustomerNote      *string
}

// ListOrdersModel holds listing parameters. Nil filters are not applied;
// VendorID and CustomerID are honoured for admins only.
type ListOrdersModel struct {
	Status        *Status
	PaymentStatus *PaymentStatus
	DateFrom      *time.Time
	DateTo        *time.Time
	VendorID      *uuid.UUID
	CustomerID    *uuid.UUID
	Page          int
	PageSize      int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize clamps paging parameters into their valid range.
func (m *ListOrdersModel) Normalize() {
	if m.Page < 1 {
		m.Page = 1
	}
	if m.PageSize < 1 {
		m.PageSize = DefaultPageSize
	}
	if m.PageSize > MaxPageSize {
		m.PageSize = MaxPageSize
	}
}

// ReorderItem is one line of a previous order to rebuild a cart from.
type ReorderItem struct {
	ProductID   uuid.UUID       `json:"product_id"`
	VariantID   *uuid.UUID      `json:"variant_id"`
	Quantity    int             `json:"quantity"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// ReorderCart is the vendor and lines of a previous order.
type ReorderCart struct {
	VendorID uuid.UUID     `json:"vendor_id"`
	Items    []ReorderItem `json:"items"`
}
