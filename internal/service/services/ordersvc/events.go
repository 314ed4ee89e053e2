package ordersvc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/corray333/backend-labs/grocery/internal/service/models/event"
	"github.com/corray333/backend-labs/grocery/internal/service/models/order"
	"github.com/corray333/backend-labs/grocery/internal/service/models/outbox"
)

const (
	RoutingKeyOrderCreated       = "order.created"
	RoutingKeyOrderStatusChanged = "order.status_changed"
)

// recordEvent stores an order event in the outbox of the current transaction.
func (s *OrderService) recordEvent(
	ctx context.Context,
	work unitOfWork,
	o order.Order,
	eventType string,
	note *string,
	now time.Time,
) error {
	routingKey := RoutingKeyOrderStatusChanged
	if eventType == event.TypeOrderCreated {
		routingKey = RoutingKeyOrderCreated
	}

	payload, err := json.Marshal(event.OrderEvent{
		Type:          eventType,
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		VendorID:      o.VendorID,
		CustomerID:    o.CustomerID,
		Status:        o.Status.String(),
		PaymentStatus: o.PaymentStatus.String(),
		TotalAmount:   o.TotalAmount,
		Note:          note,
		OccurredAt:    now,
	})
	if err != nil {
		return fmt.Errorf("failed to encode order event: %w", err)
	}

	err = work.OutboxRepository().Insert(ctx, outbox.OutboxMessage{
		MessageID:    uuid.NewString(),
		ExchangeName: s.events.Exchange,
		RoutingKey:   routingKey,
		Payload:      payload,
		ContentType:  "application/json",
		MaxRetries:   s.events.MaxRetries,
		CreatedAt:    now,
		UpdatedAt:    now,
		NextRetryAt:  now,
	})
	if err != nil {
		return fmt.Errorf("failed to record order event: %w", err)
	}

	return nil
}
