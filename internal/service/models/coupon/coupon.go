package coupon

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType is the kind of discount a coupon grants.
type DiscountType string

const (
	DiscountPercentage   DiscountType = "percentage"
	DiscountFlat         DiscountType = "flat"
	DiscountFreeDelivery DiscountType = "free_delivery"
	DiscountBuyXGetY     DiscountType = "buy_x_get_y"
)

// ParseDiscountType parses a discount type.
func ParseDiscountType(s string) (DiscountType, error) {
	switch dt := DiscountType(s); dt {
	case DiscountPercentage, DiscountFlat, DiscountFreeDelivery, DiscountBuyXGetY:
		return dt, nil
	default:
		return "", fmt.Errorf("unknown discount type %q", s)
	}
}

// Coupon is a promotional code.
type Coupon struct {
	ID                uuid.UUID        `json:"id"`
	Code              string           `json:"code"`
	Description       *string          `json:"description,omitempty"`
	DiscountType      DiscountType     `json:"discount_type"`
	DiscountValue     decimal.Decimal  `json:"discount_value"`
	MinOrderAmount    decimal.Decimal  `json:"min_order_amount"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount,omitempty"`
	MaxUses           int              `json:"max_uses"`
	UsedCount         int              `json:"used_count"`
	VendorID          *uuid.UUID       `json:"vendor_id,omitempty"`
	IsActive          bool             `json:"is_active"`
	StartDate         time.Time        `json:"start_date"`
	EndDate           time.Time        `json:"end_date"`
	CreatedAt         time.Time        `json:"created_at"`
}

// NormalizeCode upper-cases and trims a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Redeemable reports whether the coupon can be applied to an order of the given
// vendor with the given subtotal at time now.
func (c *Coupon) Redeemable(vendorID uuid.UUID, subtotal decimal.Decimal, now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if now.Before(c.StartDate) || now.After(c.EndDate) {
		return false
	}
	if subtotal.LessThan(c.MinOrderAmount) {
		return false
	}
	if c.MaxUses > 0 && c.UsedCount >= c.MaxUses {
		return false
	}
	if c.VendorID != nil && *c.VendorID != vendorID {
		return false
	}

	return true
}

// Patch is a partial update of the admin-mutable coupon fields.
// Nil fields are left untouched. ClearMaxDiscount removes the discount cap
// and wins over MaxDiscountAmount.
type Patch struct {
	Description       *string          `json:"description"`
	DiscountValue     *decimal.Decimal `json:"discount_value"`
	MinOrderAmount    *decimal.Decimal `json:"min_order_amount"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount"`
	MaxUses           *int             `json:"max_uses"`
	IsActive          *bool            `json:"is_active"`
	StartDate         *time.Time       `json:"start_date"`
	EndDate           *time.Time       `json:"end_date"`
	ClearMaxDiscount  bool             `json:"-"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Description == nil && p.DiscountValue == nil && p.MinOrderAmount == nil &&
		p.MaxDiscountAmount == nil && p.MaxUses == nil && p.IsActive == nil &&
		p.StartDate == nil && p.EndDate == nil && !p.ClearMaxDiscount
}

// Apply returns a copy of c with the patch applied.
func (p Patch) Apply(c Coupon) Coupon {
	if p.Description != nil {
		c.Description = p.Description
	}
	if p.DiscountValue != nil {
		c.DiscountValue = *p.DiscountValue
	}
	if p.MinOrderAmount != nil {
		c.MinOrderAmount = *p.MinOrderAmount
	}
	switch {
	case p.ClearMaxDiscount:
		c.MaxDiscountAmount = nil
	case p.MaxDiscountAmount != nil:
		c.MaxDiscountAmount = p.MaxDiscountAmount
	}
	if p.MaxUses != nil {
		c.MaxUses = *p.MaxUses
	}
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
	if p.StartDate != nil {
		c.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		c.EndDate = *p.EndDate
	}

	return c
}

// CreateModel is an admin request to create a coupon. Nil window bounds
// default to a thirty day window starting now.
type CreateModel struct {
	Code              string
	Description       *string
	DiscountType      DiscountType
	DiscountValue     decimal.Decimal
	MinOrderAmount    decimal.Decimal
	MaxDiscountAmount *decimal.Decimal
	MaxUses           int
	VendorID          *uuid.UUID
	IsActive          *bool
	StartDate         *time.Time
	EndDate           *time.Time
}

// DefaultWindow is the validity period of a coupon created without explicit dates.
const DefaultWindow = 30 * 24 * time.Hour

// Page is one page of coupons.
type Page struct {
	Coupons    []Coupon `json:"coupons"`
	Total      int64    `json:"total"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
	TotalPages int      `json:"total_pages"`
}
