package notifysvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/corray333/backend-labs/grocery/internal/dal/interfaces/iinboxrepo"
	"github.com/corray333/backend-labs/grocery/internal/service/models/event"
	"github.com/corray333/backend-labs/grocery/internal/service/models/inbox"
)

// ErrMalformedEvent marks a message that can never be processed.
var ErrMalformedEvent = errors.New("malformed order event")

// publisher fans a payload out to the subscribers of a channel.
type publisher interface {
	Publish(channel string, payload []byte) int
}

// Delivery is the broker metadata of a consumed message.
type Delivery struct {
	MessageID   string
	Queue       string
	RoutingKey  string
	ContentType string
	Body        []byte
}

// NotifyService turns order events into subscriber notifications.
type NotifyService struct {
	inboxRepo iinboxrepo.IInboxRepository
	hub       publisher
	now       func() time.Time
	tracer    trace.Tracer
}

// option is a function that configures the NotifyService.
type option func(*NotifyService)

// MustNewNotifyService creates a new NotifyService.
func MustNewNotifyService(opts ...option) *NotifyService {
	s := &NotifyService{
		now:    time.Now,
		tracer: otel.Tracer("notifysvc"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.inboxRepo == nil || s.hub == nil {
		panic("notifysvc: inbox repository and hub are required")
	}

	return s
}

// WithInboxRepository sets the inbox repository used for deduplication.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithInboxRepository(repo iinboxrepo.IInboxRepository) option {
	return func(s *NotifyService) {
		s.inboxRepo = repo
	}
}

// WithHub sets the pub/sub hub notifications are published to.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithHub(hub publisher) option {
	return func(s *NotifyService) {
		s.hub = hub
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *NotifyService) {
		s.now = now
	}
}

// HandleDelivery records the message in the inbox and notifies subscribers.
// Redelivered messages are acknowledged without notifying anyone twice.
func (s *NotifyService) HandleDelivery(ctx context.Context, d Delivery) error {
	ctx, span := s.tracer.Start(ctx, "NotifyService.HandleDelivery")
	defer span.End()
	span.SetAttributes(attribute.String("message_id", d.MessageID), attribute.String("routing_key", d.RoutingKey))

	var ev event.OrderEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.OrderID == uuid.Nil || ev.Type == "" {
		return fmt.Errorf("%w: missing type or order id", ErrMalformedEvent)
	}

	if d.MessageID != "" {
		fresh, err := s.inboxRepo.InsertIfAbsent(ctx, inbox.InboxMessage{
			MessageID:   d.MessageID,
			QueueName:   d.Queue,
			RoutingKey:  d.RoutingKey,
			Payload:     d.Body,
			ContentType: d.ContentType,
			CreatedAt:   s.now().UTC(),
		})
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to record inbox message: %w", err)
		}
		if !fresh {
			slog.InfoContext(ctx, "Skipping duplicate message", "message_id", d.MessageID)
			return nil
		}
	}

	for channel, payload := range notifications(ev) {
		delivered := s.hub.Publish(channel, payload)
		slog.DebugContext(ctx, "Notification published", "channel", channel, "subscribers", delivered)
	}

	slog.InfoContext(ctx, "Order event fanned out",
		"order_id", ev.OrderID,
		"type", ev.Type,
		"status", ev.Status,
	)

	return nil
}

// notifications renders the per-channel payloads of ev. Vendors receive the
// event as is; order trackers always receive an order_status message.
func notifications(ev event.OrderEvent) map[string][]byte {
	result := make(map[string][]byte, 2)
	for _, channel := range ev.Channels() {
		msg := ev
		if channel == event.OrderChannel(ev.OrderID.String()) {
			msg.Type = event.TypeOrderStatusChanged
		}
		payload, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		result[channel] = payload
	}

	return result
}
