package istatushistoryrepo

import (
	"context"

	"github.com/google/uuid"

	"github.com/corray333/backend-labs/grocery/internal/service/models/statushistory"
)

// IStatusHistoryRepository is an append-only ledger of order status changes.
type IStatusHistoryRepository interface {
	Append(ctx context.Context, entry statushistory.StatusHistory) error
	// ListByOrderIDs returns entries ordered by creation time.
	ListByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) ([]statushistory.StatusHistory, error)
}
