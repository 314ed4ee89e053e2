// Package pricing computes the monetary breakdown of a checkout.
package pricing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/corray333/backend-labs/grocery/internal/service/models/catalog"
	"github.com/corray333/backend-labs/grocery/internal/service/models/coupon"
	"github.com/corray333/backend-labs/grocery/internal/service/models/currency"
)

// TaxPolicy computes the tax owed on an order.
type TaxPolicy interface {
	Tax(subtotal decimal.Decimal, lines []catalog.ResolvedLine) decimal.Decimal
}

// ZeroTax charges no tax.
type ZeroTax struct{}

func (ZeroTax) Tax(decimal.Decimal, []catalog.ResolvedLine) decimal.Decimal {
	return decimal.Zero
}

// Config holds delivery pricing tunables.
type Config struct {
	DeliveryFee           decimal.Decimal
	FreeDeliveryThreshold decimal.Decimal
	Tax                   TaxPolicy
}

// DefaultConfig returns the stock delivery pricing.
func DefaultConfig() Config {
	return Config{
		DeliveryFee:           decimal.NewFromInt(40),
		FreeDeliveryThreshold: decimal.NewFromInt(500),
		Tax:                   ZeroTax{},
	}
}

// Breakdown is the result of a price calculation.
type Breakdown struct {
	Subtotal         decimal.Decimal
	DeliveryFee      decimal.Decimal
	DiscountAmount   decimal.Decimal
	TaxAmount        decimal.Decimal
	TotalAmount      decimal.Decimal
	CommissionRate   decimal.Decimal
	CommissionAmount decimal.Decimal
	VendorPayout     decimal.Decimal
	// CouponApplied is set when the coupon was redeemed and its used_count
	// must be incremented once.
	CouponApplied bool
}

// Calculate prices the resolved lines for a vendor with the given commission rate.
// An inapplicable coupon is ignored.
func Calculate(
	lines []catalog.ResolvedLine,
	vendorID uuid.UUID,
	commissionRate decimal.Decimal,
	c *coupon.Coupon,
	now time.Time,
	cfg Config,
) Breakdown {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(currency.Round2(l.LineTotal()))
	}

	deliveryFee := decimal.Zero
	if subtotal.LessThan(cfg.FreeDeliveryThreshold) {
		deliveryFee = currency.Round2(cfg.DeliveryFee)
	}

	discount := decimal.Zero
	applied := false
	if c != nil && c.Redeemable(vendorID, subtotal, now) {
		applied = true
		switch c.DiscountType {
		case coupon.DiscountPercentage:
			discount = currency.Percent(subtotal, c.DiscountValue)
			// a zero cap means uncapped
			if c.MaxDiscountAmount != nil && c.MaxDiscountAmount.IsPositive() && discount.GreaterThan(*c.MaxDiscountAmount) {
				discount = currency.Round2(*c.MaxDiscountAmount)
			}
		case coupon.DiscountFlat:
			discount = currency.Round2(c.DiscountValue)
		case coupon.DiscountFreeDelivery:
			deliveryFee = decimal.Zero
		case coupon.DiscountBuyXGetY:
			// no monetary effect
		}
	}

	tax := decimal.Zero
	if cfg.Tax != nil {
		tax = currency.Round2(cfg.Tax.Tax(subtotal, lines))
	}

	total := subtotal.Add(deliveryFee).Add(tax).Sub(discount)
	commission := currency.Percent(total, commissionRate)

	return Breakdown{
		Subtotal:         subtotal,
		DeliveryFee:      deliveryFee,
		DiscountAmount:   discount,
		TaxAmount:        tax,
		TotalAmount:      total,
		CommissionRate:   commissionRate,
		CommissionAmount: commission,
		VendorPayout:     total.Sub(commission),
		CouponApplied:    applied,
	}
}
