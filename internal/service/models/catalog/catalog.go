// Package catalog holds the catalog entities consumed (not owned) by checkout.
package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Vendor is the store an order is placed with.
type Vendor struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	StoreName      string
	CommissionRate decimal.Decimal
	IsActive       bool
	TotalOrders    int
}

// Address is a customer delivery address.
type Address struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Label       string
	FullAddress string
	City        string
	State       string
	PostalCode  string
	Latitude    *float64
	Longitude   *float64
}

// Product is a sellable catalog entry.
type Product struct {
	ID             uuid.UUID
	VendorID       uuid.UUID
	Name           string
	Price          decimal.Decimal
	StockQuantity  int
	TrackInventory bool
	UnitType       string
	UnitValue      decimal.Decimal
	PrimaryImage   *string
}

// Variant is a priced variation of a product with its own stock counter.
type Variant struct {
	ID            uuid.UUID
	ProductID     uuid.UUID
	Name          string
	Price         decimal.Decimal
	StockQuantity int
}

// LineRequest is one requested (product, variant?, quantity) tuple.
type LineRequest struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int
}

// ResolvedLine is a validated line with its effective unit price.
type ResolvedLine struct {
	Product   Product
	Variant   *Variant
	VariantID *uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

// LineTotal is unit price times quantity.
func (l ResolvedLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
