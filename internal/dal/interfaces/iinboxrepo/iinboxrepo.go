package iinboxrepo

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/grocery/internal/service/models/inbox"
)

// IInboxRepository records consumed messages for deduplication.
type IInboxRepository interface {
	// InsertIfAbsent stores msg and reports false when its message id was
	// already recorded.
	InsertIfAbsent(ctx context.Context, msg inbox.InboxMessage) (bool, error)

	// DeleteOlderThan prunes records created before cutoff, at most limit rows.
	DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}
