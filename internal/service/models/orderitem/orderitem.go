package orderitem

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is an immutable snapshot of one purchased line.
type OrderItem struct {
	ID              uuid.UUID       `json:"id"`
	OrderID         uuid.UUID       `json:"order_id"`
	ProductID       uuid.UUID       `json:"product_id"`
	VariantID       *uuid.UUID      `json:"variant_id,omitempty"`
	ProductName     string          `json:"product_name"`
	ProductImageURL *string         `json:"product_image_url,omitempty"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Quantity        int             `json:"quantity"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	UnitType        string          `json:"unit_type"`
	UnitValue       decimal.Decimal `json:"unit_value"`
	CreatedAt       time.Time       `json:"created_at"`
}
