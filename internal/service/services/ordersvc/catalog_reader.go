package ordersvc

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/corray333/backend-labs/grocery/internal/dal/interfaces/icatalogrepo"
	"github.com/corray333/backend-labs/grocery/internal/service/apperr"
	"github.com/corray333/backend-labs/grocery/internal/service/models/catalog"
)

// resolveLines validates the requested lines against the vendor's catalog and
// resolves their unit prices. Products are row-locked until the transaction ends.
func resolveLines(
	ctx context.Context,
	repo icatalogrepo.ICatalogRepository,
	vendorID uuid.UUID,
	requests []catalog.LineRequest,
) ([]catalog.ResolvedLine, error) {
	productIDs := make([]uuid.UUID, 0, len(requests))
	seen := make(map[uuid.UUID]struct{}, len(requests))
	var variantIDs []uuid.UUID
	for _, req := range requests {
		if _, ok := seen[req.ProductID]; !ok {
			seen[req.ProductID] = struct{}{}
			productIDs = append(productIDs, req.ProductID)
		}
		if req.VariantID != nil {
			variantIDs = append(variantIDs, *req.VariantID)
		}
	}

	products, err := repo.LockProducts(ctx, vendorID, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	byID := make(map[uuid.UUID]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	variants, err := repo.GetVariants(ctx, variantIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load variants: %w", err)
	}
	variantsByID := make(map[uuid.UUID]catalog.Variant, len(variants))
	for _, v := range variants {
		variantsByID[v.ID] = v
	}

	requested := make(map[uuid.UUID]int, len(productIDs))
	lines := make([]catalog.ResolvedLine, 0, len(requests))
	for _, req := range requests {
		product, ok := byID[req.ProductID]
		if !ok {
			return nil, apperr.BadRequest("PRODUCT_NOT_FOUND", "Product %s not found", req.ProductID)
		}

		requested[product.ID] += req.Quantity
		if product.TrackInventory && product.StockQuantity < requested[product.ID] {
			return nil, apperr.InsufficientStock(product.Name)
		}

		line := catalog.ResolvedLine{
			Product:   product,
			VariantID: req.VariantID,
			Quantity:  req.Quantity,
			UnitPrice: product.Price,
		}
		if req.VariantID != nil {
			if v, ok := variantsByID[*req.VariantID]; ok && v.ProductID == product.ID {
				line.Variant = &v
				line.UnitPrice = v.Price
			}
		}

		lines = append(lines, line)
	}

	return lines, nil
}
