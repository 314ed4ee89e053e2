package inbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/corray333/backend-labs/grocery/internal/dal/interfaces/iinboxrepo"
)

// Worker prunes deduplication records that are past retention.
type Worker struct {
	inboxRepo    iinboxrepo.IInboxRepository
	pollInterval time.Duration
	retention    time.Duration
	batchSize    int
	now          func() time.Time
	stopCh       chan struct{}
}

// NewWorker creates a new inbox worker.
func NewWorker(inboxRepo iinboxrepo.IInboxRepository) *Worker {
	pollInterval := viper.GetDuration("inbox.poll_interval")
	if pollInterval <= 0 {
		pollInterval = time.Minute
	}

	retentionHours := viper.GetInt("inbox.retention_hours")
	if retentionHours <= 0 {
		retentionHours = 72
	}

	batchSize := viper.GetInt("inbox.batch_size")
	if batchSize <= 0 {
		batchSize = 1000
	}

	return &Worker{
		inboxRepo:    inboxRepo,
		pollInterval: pollInterval,
		retention:    time.Duration(retentionHours) * time.Hour,
		batchSize:    batchSize,
		now:          time.Now,
		stopCh:       make(chan struct{}),
	}
}

// Start begins pruning the inbox.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	slog.Info("Inbox worker started", "poll_interval", w.pollInterval, "retention", w.retention)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Inbox worker shutting down")

			return
		case <-w.stopCh:
			slog.Info("Inbox worker stopped")

			return
		case <-ticker.C:
			w.prune(ctx)
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	close(w.stopCh)
}

// prune deletes expired records batch by batch until a short batch is seen.
func (w *Worker) prune(ctx context.Context) {
	cutoff := w.now().Add(-w.retention)

	var total int64
	for {
		deleted, err := w.inboxRepo.DeleteOlderThan(ctx, cutoff, w.batchSize)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to prune inbox", "error", err)

			return
		}
		total += deleted
		if deleted < int64(w.batchSize) || ctx.Err() != nil {
			break
		}
	}

	if total > 0 {
		slog.InfoContext(ctx, "Inbox pruned", "deleted", total, "cutoff", cutoff)
	}
}
