package ioutboxrepo

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/grocery/internal/service/models/outbox"
)

// IOutboxRepository stores order events until the outbox worker publishes them.
type IOutboxRepository interface {
	// Insert records msg. Called inside the transaction that produced the event.
	Insert(ctx context.Context, msg outbox.OutboxMessage) error

	// ListDue returns up to limit messages whose next attempt is not after now
	// and that still have retries left, oldest schedule first.
	ListDue(ctx context.Context, now time.Time, limit int) ([]outbox.OutboxMessage, error)

	// Delete removes a published message.
	Delete(ctx context.Context, id int64) error

	// ScheduleRetry records a failed attempt and when to try again.
	ScheduleRetry(
		ctx context.Context,
		id int64,
		retryCount int,
		lastError string,
		nextRetryAt time.Time,
	) error
}
