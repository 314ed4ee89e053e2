package inbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"github.com/corray333/backend-labs/grocery/internal/service/models/inbox"
)

type memInbox struct {
	created []time.Time
	calls   int
	err     error
}

func (m *memInbox) InsertIfAbsent(_ context.Context, msg inbox.InboxMessage) (bool, error) {
	m.created = append(m.created, msg.CreatedAt)

	return true, nil
}

func (m *memInbox) DeleteOlderThan(_ context.Context, cutoff time.Time, limit int) (int64, error) {
	m.calls++
	if m.err != nil {
		return 0, m.err
	}

	var kept []time.Time
	var deleted int64
	for _, c := range m.created {
		if c.Before(cutoff) && deleted < int64(limit) {
			deleted++

			continue
		}
		kept = append(kept, c)
	}
	m.created = kept

	return deleted, nil
}

func TestPruneDeletesInBatches(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("inbox.retention_hours", 24)
	viper.Set("inbox.batch_size", 2)

	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	repo := &memInbox{}
	for _, age := range []time.Duration{48 * time.Hour, 30 * time.Hour, 25 * time.Hour, time.Hour} {
		_, _ = repo.InsertIfAbsent(context.Background(), inbox.InboxMessage{CreatedAt: now.Add(-age)})
	}

	w := NewWorker(repo)
	w.now = func() time.Time { return now }
	w.prune(context.Background())

	assert.Equal(t, []time.Time{now.Add(-time.Hour)}, repo.created)
	assert.Equal(t, 2, repo.calls)
}

func TestPruneStopsOnError(t *testing.T) {
	t.Cleanup(viper.Reset)
	repo := &memInbox{err: errors.New("timeout")}

	NewWorker(repo).prune(context.Background())

	assert.Equal(t, 1, repo.calls)
}

func TestNewWorkerDefaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	w := NewWorker(&memInbox{})

	assert.Equal(t, 72*time.Hour, w.retention)
	assert.Equal(t, time.Minute, w.pollInterval)
	assert.Equal(t, 1000, w.batchSize)
}
