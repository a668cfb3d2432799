package main

import (
	"context"
	"time"

	"stockledger/pkg/logger"
)

// KeyCleaner deletes expired idempotency keys.
type KeyCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Worker runs periodic maintenance.
type Worker struct {
	keys     KeyCleaner
	interval time.Duration
	log      *logger.Logger
}

func NewWorker(keys KeyCleaner, interval time.Duration, log *logger.Logger) *Worker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Worker{
		keys:     keys,
		interval: interval,
		log:      log.WithComponent("worker"),
	}
}

// Run cleans up once immediately and then every interval until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.cleanupIdempotency(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.cleanupIdempotency(ctx)
		}
	}
}

func (w *Worker) cleanupIdempotency(ctx context.Context) {
	n, err := w.keys.CleanupExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Errorw("idempotency cleanup failed", "error", err)
		}
		return
	}
	if n > 0 {
		w.log.Infow("expired idempotency keys removed", "count", n)
	}
}
