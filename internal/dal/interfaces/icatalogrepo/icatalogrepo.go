package icatalogrepo

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/corray333/backend-labs/grocery/internal/service/models/catalog"
)

var (
	ErrVendorNotFound    = errors.New("vendor not found")
	ErrAddressNotFound   = errors.New("address not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ICatalogRepository reads catalog entities and mutates stock counters.
type ICatalogRepository interface {
	GetVendor(ctx context.Context, id uuid.UUID) (catalog.Vendor, error)
	GetVendorByUserID(ctx context.Context, userID uuid.UUID) (catalog.Vendor, error)
	IncrementVendorOrders(ctx context.Context, vendorID uuid.UUID) error

	// GetAddress returns the address only if it belongs to userID.
	GetAddress(ctx context.Context, id, userID uuid.UUID) (catalog.Address, error)

	// LockProducts returns the vendor's products among ids, row-locked in
	// ascending id order. Missing ids are simply absent from the result.
	LockProducts(ctx context.Context, vendorID uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error)
	GetVariants(ctx context.Context, ids []uuid.UUID) ([]catalog.Variant, error)

	// DecrementProductStock fails with ErrInsufficientStock when stock < qty.
	DecrementProductStock(ctx context.Context, productID uuid.UUID, qty int) error
	DecrementVariantStock(ctx context.Context, variantID uuid.UUID, qty int) error
	RestoreProductStock(ctx context.Context, productID uuid.UUID, qty int) error
}
