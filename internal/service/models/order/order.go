package order

import (
	"time"

	"github.com/corray333/backend-labs/grocery/internal/service/models/currency"
	"github.com/corray333/backend-labs/grocery/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/grocery/internal/service/models/statushistory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethodCOD is the cash-on-delivery payment method.
const PaymentMethodCOD = "cod"

// DeliveryAddress is the address snapshot copied into the order at checkout.
type DeliveryAddress struct {
	Label       string   `json:"label"`
	FullAddress string   `json:"full_address"`
	City        string   `json:"city"`
	State       string   `json:"state"`
	PostalCode  string   `json:"postal_code"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// Order is one purchase transaction for one vendor.
type Order struct {
	ID                 uuid.UUID                     `json:"id"`
	OrderNumber        string                        `json:"order_number"`
	CustomerID         uuid.UUID                     `json:"customer_id"`
	VendorID           uuid.UUID                     `json:"vendor_id"`
	DeliveryAddress    DeliveryAddress               `json:"delivery_address"`
	Currency           currency.Currency             `json:"currency"`
	Subtotal           decimal.Decimal               `json:"subtotal"`
	DeliveryFee        decimal.Decimal               `json:"delivery_fee"`
	DiscountAmount     decimal.Decimal               `json:"discount_amount"`
	TaxAmount          decimal.Decimal               `json:"tax_amount"`
	TotalAmount        decimal.Decimal               `json:"total_amount"`
	CommissionRate     decimal.Decimal               `json:"commission_rate"`
	CommissionAmount   decimal.Decimal               `json:"commission_amount"`
	VendorPayoutAmount decimal.Decimal               `json:"vendor_payout_amount"`
	Status             Status                        `json:"status"`
	PaymentStatus      PaymentStatus                 `json:"payment_status"`
	PaymentMethod      string                        `json:"payment_method"`
	CouponCode         *string                       `json:"coupon_code,omitempty"`
	CustomerNote       *string                       `json:"customer_note,omitempty"`
	CancellationReason *string                       `json:"cancellation_reason,omitempty"`
	ActualDeliveryTime *time.Time                    `json:"actual_delivery_time,omitempty"`
	CreatedAt          time.Time                     `json:"created_at"`
	UpdatedAt          time.Time                     `json:"updated_at"`
	OrderItems         []orderitem.OrderItem         `json:"items"`
	StatusHistory      []statushistory.StatusHistory `json:"status_history"`
}
