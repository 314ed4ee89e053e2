package ordersvc

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/corray333/backend-labs/grocery/internal/service/apperr"
	"github.com/corray333/backend-labs/grocery/internal/service/models/identity"
	"github.com/corray333/backend-labs/grocery/internal/service/models/order"
)

// ListOrders returns one page of the orders visible to the caller, newest first.
func (s *OrderService) ListOrders(
	ctx context.Context,
	caller identity.Caller,
	req order.ListOrdersModel,
) (order.Page, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListOrders")
	defer span.End()

	req.Normalize()
	page := order.Page{
		Orders:   []order.Order{},
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	work := s.newUOW()

	query := order.QueryOrdersModel{
		Status:        req.Status,
		PaymentStatus: req.PaymentStatus,
		CreatedFrom:   req.DateFrom,
		CreatedTo:     req.DateTo,
		Limit:         req.PageSize,
		Offset:        (req.Page - 1) * req.PageSize,
	}

	switch caller.Role {
	case identity.RoleCustomer:
		query.CustomerIds = []uuid.UUID{caller.ID}
	case identity.RoleVendor:
		vendorID, ok, err := callerVendorID(ctx, work, caller)
		if err != nil {
			return order.Page{}, err
		}
		if !ok {
			return page, nil
		}
		query.VendorIds = []uuid.UUID{vendorID}
	case identity.RoleAdmin:
		if req.VendorID != nil {
			query.VendorIds = []uuid.UUID{*req.VendorID}
		}
		if req.CustomerID != nil {
			query.CustomerIds = []uuid.UUID{*req.CustomerID}
		}
	default:
		return order.Page{}, apperr.Forbidden("Access denied")
	}

	orders, total, err := work.OrderRepository().Query(ctx, query)
	if err != nil {
		return order.Page{}, fmt.Errorf("failed to list orders: %w", err)
	}
	if err := attachDetails(ctx, work, orders); err != nil {
		return order.Page{}, err
	}

	page.Orders = orders
	page.Total = total
	page.TotalPages = int((total + int64(req.PageSize) - 1) / int64(req.PageSize))

	return page, nil
}
