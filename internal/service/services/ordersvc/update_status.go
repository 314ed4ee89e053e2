package ordersvc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/corray333/backend-labs/grocery/internal/service/apperr"
	"github.com/corray333/backend-labs/grocery/internal/service/models/event"
	"github.com/corray333/backend-labs/grocery/internal/service/models/identity"
	"github.com/corray333/backend-labs/grocery/internal/service/models/order"
	"github.com/corray333/backend-labs/grocery/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/grocery/internal/service/models/statushistory"
)

// UpdateOrderStatus moves an order to status. Moving to cancelled runs the
// cancellation path with note as the reason.
func (s *OrderService) UpdateOrderStatus(
	ctx context.Context,
	caller identity.Caller,
	id uuid.UUID,
	status order.Status,
	note *string,
) (order.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.UpdateOrderStatus")
	defer span.End()
	span.SetAttributes(attribute.String("order_id", id.String()), attribute.String("status", status.String()))

	var updated order.Order
	err := s.inTx(ctx, func(work unitOfWork) error {
		o, err := s.loadOrder(ctx, work, id, true)
		if err != nil {
			return err
		}

		if err := s.authorizeUpdate(ctx, work, caller, o, status); err != nil {
			return err
		}

		if status == order.StatusCancelled {
			reason := ""
			if note != nil {
				reason = *note
			}
			updated, err = s.cancel(ctx, work, caller, o, reason)

			return err
		}

		updated, err = s.transition(ctx, work, caller, o, status, note)

		return err
	})
	if err != nil {
		span.RecordError(err)
		return order.Order{}, err
	}

	s.evict(ctx, id)
	slog.InfoContext(ctx, "Order status updated", "order_id", id, "status", updated.Status)

	return updated, nil
}

func (s *OrderService) authorizeUpdate(
	ctx context.Context,
	work unitOfWork,
	caller identity.Caller,
	o order.Order,
	status order.Status,
) error {
	switch caller.Role {
	case identity.RoleAdmin, identity.RoleDelivery:
		return nil
	case identity.RoleVendor:
		owns, err := s.ownsAsVendor(ctx, work, caller, o)
		if err != nil {
			return err
		}
		if !owns {
			return apperr.Forbidden("Access denied")
		}

		return nil
	case identity.RoleCustomer:
		if o.CustomerID == caller.ID && status == order.StatusCancelled {
			return nil
		}
	}

	return apperr.Forbidden("Access denied")
}

func (s *OrderService) transition(
	ctx context.Context,
	work unitOfWork,
	caller identity.Caller,
	o order.Order,
	status order.Status,
	note *string,
) (order.Order, error) {
	if !o.Status.CanTransition(status) {
		return order.Order{}, apperr.InvalidStateTransition(o.Status.String(), status.String())
	}

	now := s.now().UTC()
	o.Status = status
	o.UpdatedAt = now
	if status == order.StatusDelivered {
		o.ActualDeliveryTime = &now
		o.PaymentStatus = order.PaymentStatusPaid
	}

	if err := s.persistTransition(ctx, work, caller, o, note, now); err != nil {
		return order.Order{}, err
	}

	return s.reloadDetails(ctx, work, o)
}

// CancelOrder cancels a pending or confirmed order and restores product stock.
func (s *OrderService) CancelOrder(
	ctx context.Context,
	caller identity.Caller,
	id uuid.UUID,
	reason string,
) (order.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CancelOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order_id", id.String()))

	var cancelled order.Order
	err := s.inTx(ctx, func(work unitOfWork) error {
		o, err := s.loadOrder(ctx, work, id, true)
		if err != nil {
			return err
		}

		switch caller.Role {
		case identity.RoleAdmin:
		case identity.RoleCustomer:
			if o.CustomerID != caller.ID {
				return apperr.Forbidden("Access denied")
			}
		case identity.RoleVendor:
			owns, err := s.ownsAsVendor(ctx, work, caller, o)
			if err != nil {
				return err
			}
			if !owns {
				return apperr.Forbidden("Access denied")
			}
		default:
			return apperr.Forbidden("Access denied")
		}

		cancelled, err = s.cancel(ctx, work, caller, o, reason)

		return err
	})
	if err != nil {
		span.RecordError(err)
		return order.Order{}, err
	}

	s.evict(ctx, id)
	slog.InfoContext(ctx, "Order cancelled", "order_id", id, "reason", reason)

	return cancelled, nil
}

func (s *OrderService) cancel(
	ctx context.Context,
	work unitOfWork,
	caller identity.Caller,
	o order.Order,
	reason string,
) (order.Order, error) {
	if !o.Status.CanTransition(order.StatusCancelled) {
		return order.Order{}, apperr.InvalidStateTransition(o.Status.String(), order.StatusCancelled.String())
	}

	items, err := work.OrderItemRepository().Query(ctx, orderitem.QueryOrderItemsModel{OrderIds: []uuid.UUID{o.ID}})
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to load order items: %w", err)
	}
	if err := restoreStock(ctx, work.CatalogRepository(), o.VendorID, items); err != nil {
		return order.Order{}, err
	}

	now := s.now().UTC()
	o.Status = order.StatusCancelled
	o.CancellationReason = &reason
	o.UpdatedAt = now

	note := "Cancelled: " + reason
	if err := s.persistTransition(ctx, work, caller, o, &note, now); err != nil {
		return order.Order{}, err
	}

	return s.reloadDetails(ctx, work, o)
}

func (s *OrderService) persistTransition(
	ctx context.Context,
	work unitOfWork,
	caller identity.Caller,
	o order.Order,
	note *string,
	now time.Time,
) error {
	if err := work.OrderRepository().UpdateStatus(ctx, o); err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	changedBy := caller.ID
	err := work.StatusHistoryRepository().Append(ctx, statushistory.StatusHistory{
		ID:        uuid.New(),
		OrderID:   o.ID,
		Status:    o.Status.String(),
		Note:      note,
		ChangedBy: &changedBy,
		CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("failed to append status history: %w", err)
	}

	return s.recordEvent(ctx, work, o, event.TypeOrderStatusChanged, note, now)
}

func (s *OrderService) reloadDetails(ctx context.Context, work unitOfWork, o order.Order) (order.Order, error) {
	orders := []order.Order{o}
	if err := attachDetails(ctx, work, orders); err != nil {
		return order.Order{}, err
	}

	return orders[0], nil
}
