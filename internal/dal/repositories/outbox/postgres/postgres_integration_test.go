//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/corray333/backend-labs/grocery/internal/dal/postgres"
	outboxrepo "github.com/corray333/backend-labs/grocery/internal/dal/repositories/outbox/postgres"
	"github.com/corray333/backend-labs/grocery/internal/service/models/outbox"
)

func TestOutboxRepository(t *testing.T) {
	ctx := context.Background()

	container, err := tcpostgres.Run(
		ctx,
		"postgres:17-alpine",
		tcpostgres.WithDatabase("orders"),
		tcpostgres.WithUsername("test_user"),
		tcpostgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	client, err := postgres.NewClient(ctx, connStr, "../../../../../migrations/order")
	require.NoError(t, err)
	t.Cleanup(client.Close)

	repo := outboxrepo.NewOutboxRepository(client.Pool())
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	message := func(routingKey string, nextRetryAt time.Time, retryCount int) outbox.OutboxMessage {
		return outbox.OutboxMessage{
			MessageID:    uuid.NewString(),
			ExchangeName: "orders.events",
			RoutingKey:   routingKey,
			Payload:      []byte(`{"type":"` + routingKey + `"}`),
			ContentType:  "application/json",
			RetryCount:   retryCount,
			MaxRetries:   3,
			CreatedAt:    now.Add(-time.Hour),
			UpdatedAt:    now.Add(-time.Hour),
			NextRetryAt:  nextRetryAt,
		}
	}

	older := message("order.created", now.Add(-10*time.Minute), 0)
	newer := message("order.status_changed", now.Add(-time.Minute), 1)
	future := message("order.cancelled", now.Add(time.Hour), 0)
	exhausted := message("order.delivered", now.Add(-time.Hour), 3)
	for _, msg := range []outbox.OutboxMessage{newer, future, exhausted, older} {
		require.NoError(t, repo.Insert(ctx, msg))
	}

	// message ids are unique
	assert.Error(t, repo.Insert(ctx, older))

	due, err := repo.ListDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, older.MessageID, due[0].MessageID)
	assert.Equal(t, newer.MessageID, due[1].MessageID)
	assert.Equal(t, older.Payload, due[0].Payload)
	assert.Equal(t, 1, due[1].RetryCount)
	assert.NotZero(t, due[0].ID)

	limited, err := repo.ListDue(ctx, now, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, older.MessageID, limited[0].MessageID)

	require.NoError(t, repo.ScheduleRetry(ctx, due[0].ID, 1, "channel closed", now.Add(30*time.Second)))

	due, err = repo.ListDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, newer.MessageID, due[0].MessageID)

	later, err := repo.ListDue(ctx, now.Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, later, 2)
	assert.Equal(t, older.MessageID, later[1].MessageID)
	assert.Equal(t, 1, later[1].RetryCount)
	assert.Equal(t, "channel closed", later[1].LastError)

	require.NoError(t, repo.Delete(ctx, later[0].ID))

	later, err = repo.ListDue(ctx, now.Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, later, 1)
	assert.Equal(t, older.MessageID, later[0].MessageID)

	// retries exhausted by the last failed attempt
	require.NoError(t, repo.ScheduleRetry(ctx, later[0].ID, 3, "channel closed", now))

	later, err = repo.ListDue(ctx, now.Add(2*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, later, 1)
	assert.Equal(t, future.MessageID, later[0].MessageID)
}
