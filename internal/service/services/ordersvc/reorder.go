package ordersvc

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/corray333/backend-labs/grocery/internal/service/apperr"
	"github.com/corray333/backend-labs/grocery/internal/service/models/identity"
	"github.com/corray333/backend-labs/grocery/internal/service/models/order"
	"github.com/corray333/backend-labs/grocery/internal/service/models/orderitem"
)

// Reorder returns the lines of one of the caller's previous orders.
func (s *OrderService) Reorder(ctx context.Context, caller identity.Caller, id uuid.UUID) (order.ReorderCart, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Reorder")
	defer span.End()

	work := s.newUOW()

	o, err := s.loadOrder(ctx, work, id, false)
	if err != nil {
		return order.ReorderCart{}, err
	}
	if o.CustomerID != caller.ID {
		return order.ReorderCart{}, apperr.NotFound("ORDER_NOT_FOUND", "Order not found")
	}

	items, err := work.OrderItemRepository().Query(ctx, orderitem.QueryOrderItemsModel{OrderIds: []uuid.UUID{o.ID}})
	if err != nil {
		return order.ReorderCart{}, fmt.Errorf("failed to load order items: %w", err)
	}

	cart := order.ReorderCart{
		VendorID: o.VendorID,
		Items:    make([]order.ReorderItem, 0, len(items)),
	}
	for _, item := range items {
		cart.Items = append(cart.Items, order.ReorderItem{
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			Quantity:    item.Quantity,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
		})
	}

	return cart, nil
}
