package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Cleaner removes delivered events that are past retention.
type Cleaner interface {
	Cleanup(ctx context.Context) (int64, error)
}

type OutboxCleanupWorker struct {
	cleaner  Cleaner
	interval time.Duration
}

func NewOutboxCleanupWorker(cleaner Cleaner, interval time.Duration) *OutboxCleanupWorker {
	return &OutboxCleanupWorker{
		cleaner:  cleaner,
		interval: interval,
	}
}

func (w *OutboxCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.cleaner.Cleanup(ctx); err != nil {
				log.Error().Err(err).Msg("outbox cleanup failed")
			}
		}
	}
}
