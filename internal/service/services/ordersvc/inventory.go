package ordersvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/corray333/backend-labs/grocery/internal/dal/interfaces/icatalogrepo"
	"github.com/corray333/backend-labs/grocery/internal/service/apperr"
	"github.com/corray333/backend-labs/grocery/internal/service/models/catalog"
	"github.com/corray333/backend-labs/grocery/internal/service/models/orderitem"
)

// reserveStock decrements product stock, and variant stock when a variant was
// resolved, for every line whose product tracks inventory.
func reserveStock(ctx context.Context, repo icatalogrepo.ICatalogRepository, lines []catalog.ResolvedLine) error {
	for _, line := range lines {
		if !line.Product.TrackInventory {
			continue
		}

		err := repo.DecrementProductStock(ctx, line.Product.ID, line.Quantity)
		if errors.Is(err, icatalogrepo.ErrInsufficientStock) {
			return apperr.InsufficientStock(line.Product.Name)
		}
		if err != nil {
			return fmt.Errorf("failed to reserve stock: %w", err)
		}

		if line.Variant != nil {
			if err := repo.DecrementVariantStock(ctx, line.Variant.ID, line.Quantity); err != nil {
				return fmt.Errorf("failed to reserve variant stock: %w", err)
			}
		}
	}

	return nil
}

// restoreStock returns cancelled quantities to tracked products. Variant
// counters are left untouched.
func restoreStock(
	ctx context.Context,
	repo icatalogrepo.ICatalogRepository,
	vendorID uuid.UUID,
	items []orderitem.OrderItem,
) error {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	products, err := repo.LockProducts(ctx, vendorID, ids)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	tracked := make(map[uuid.UUID]bool, len(products))
	for _, p := range products {
		tracked[p.ID] = p.TrackInventory
	}

	for _, item := range items {
		if !tracked[item.ProductID] {
			continue
		}
		if err := repo.RestoreProductStock(ctx, item.ProductID, item.Quantity); err != nil {
			return fmt.Errorf("failed to restore stock: %w", err)
		}
	}

	return nil
}
