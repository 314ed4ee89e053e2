package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/corray333/backend-labs/grocery/internal/dal/postgres"
	"github.com/corray333/backend-labs/grocery/internal/service/models/inbox"
)

// InboxRepository implements the inbox repository for PostgreSQL.
type InboxRepository struct {
	conn postgres.DBTX
}

// NewInboxRepository creates a new inbox repository.
func NewInboxRepository(conn postgres.DBTX) *InboxRepository {
	return &InboxRepository{
		conn: conn,
	}
}

// InsertIfAbsent records msg unless its message id is already known.
func (r *InboxRepository) InsertIfAbsent(ctx context.Context, msg inbox.InboxMessage) (bool, error) {
	query, args, err := sq.Insert("inbox").
		Columns(
			"message_id",
			"queue_name",
			"routing_key",
			"payload",
			"content_type",
			"created_at",
		).
		Values(
			msg.MessageID,
			msg.QueueName,
			msg.RoutingKey,
			msg.Payload,
			msg.ContentType,
			msg.CreatedAt,
		).
		Suffix("ON CONFLICT (message_id) DO NOTHING").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build insert query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to insert inbox message: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// DeleteOlderThan removes processed messages created before cutoff.
func (r *InboxRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	sub, subArgs, err := sq.Select("id").
		From("inbox").
		Where(sq.Lt{"created_at": cutoff}).
		OrderBy("id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build select query: %w", err)
	}

	query, args, err := sq.Delete("inbox").
		Where("id IN ("+sub+")", subArgs...).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete inbox messages: %w", err)
	}

	return tag.RowsAffected(), nil
}
