package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/corray333/backend-labs/grocery/internal/dal/postgres"
	"github.com/corray333/backend-labs/grocery/internal/service/models/statushistory"
)

// StatusHistoryRepository implements the order status ledger for PostgreSQL.
type StatusHistoryRepository struct {
	conn postgres.DBTX
}

// NewStatusHistoryRepository creates a new status history repository.
func NewStatusHistoryRepository(conn postgres.DBTX) *StatusHistoryRepository {
	return &StatusHistoryRepository{
		conn: conn,
	}
}

// Append adds one ledger entry.
func (r *StatusHistoryRepository) Append(ctx context.Context, entry statushistory.StatusHistory) error {
	query, args, err := sq.Insert("order_status_history").
		Columns(
			"id",
			"order_id",
			"status",
			"note",
			"changed_by",
			"created_at",
		).
		Values(
			entry.ID,
			entry.OrderID,
			entry.Status,
			entry.Note,
			entry.ChangedBy,
			entry.CreatedAt,
		).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build status history insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert status history: %w", err)
	}

	return nil
}

// ListByOrderIDs returns the ledger entries of the given orders oldest first.
func (r *StatusHistoryRepository) ListByOrderIDs(
	ctx context.Context,
	orderIDs []uuid.UUID,
) ([]statushistory.StatusHistory, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}

	query, args, err := sq.Select(
		"id",
		"order_id",
		"status",
		"note",
		"changed_by",
		"created_at",
	).
		From("order_status_history").
		Where(sq.Eq{"order_id": orderIDs}).
		OrderBy("created_at ASC", "id ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var result []statushistory.StatusHistory
	for rows.Next() {
		var h statushistory.StatusHistory
		if err := rows.Scan(&h.ID, &h.OrderID, &h.Status, &h.Note, &h.ChangedBy, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status history: %w", err)
		}
		result = append(result, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
