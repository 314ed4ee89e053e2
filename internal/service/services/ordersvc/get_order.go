package ordersvc

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/corray333/backend-labs/grocery/internal/service/apperr"
	"github.com/corray333/backend-labs/grocery/internal/service/models/identity"
	"github.com/corray333/backend-labs/grocery/internal/service/models/order"
)

// GetOrder returns the order aggregate if the caller may see it.
func (s *OrderService) GetOrder(ctx context.Context, caller identity.Caller, id uuid.UUID) (order.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetOrder")
	defer span.End()

	work := s.newUOW()

	o, err := s.fetchAggregate(ctx, work, id)
	if err != nil {
		return order.Order{}, err
	}

	switch caller.Role {
	case identity.RoleAdmin, identity.RoleDelivery:
	case identity.RoleCustomer:
		if o.CustomerID != caller.ID {
			return order.Order{}, apperr.Forbidden("Access denied")
		}
	case identity.RoleVendor:
		owns, err := s.ownsAsVendor(ctx, work, caller, o)
		if err != nil {
			return order.Order{}, err
		}
		if !owns {
			return order.Order{}, apperr.Forbidden("Access denied")
		}
	default:
		return order.Order{}, apperr.Forbidden("Access denied")
	}

	return o, nil
}

func (s *OrderService) fetchAggregate(ctx context.Context, work unitOfWork, id uuid.UUID) (order.Order, error) {
	cacheable := false
	var generation int64
	if s.cache != nil {
		cached, gen, ok, err := s.cache.Get(ctx, id)
		switch {
		case err != nil:
			slog.WarnContext(ctx, "Order cache read failed", "order_id", id, "error", err)
		case ok:
			return cached, nil
		default:
			cacheable, generation = true, gen
		}
	}

	o, err := s.loadOrder(ctx, work, id, false)
	if err != nil {
		return order.Order{}, err
	}

	orders := []order.Order{o}
	if err := attachDetails(ctx, work, orders); err != nil {
		return order.Order{}, err
	}
	o = orders[0]

	if cacheable {
		written, err := s.cache.SetIfGeneration(ctx, o, generation)
		if err != nil {
			slog.WarnContext(ctx, "Order cache write failed", "order_id", id, "error", err)
		} else if !written {
			slog.DebugContext(ctx, "Order changed while loading, not cached", "order_id", id)
		}
	}

	return o, nil
}
