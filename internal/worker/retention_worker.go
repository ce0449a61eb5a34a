package worker

import (
	"context"
	"sync"
	"time"

	"neowatch/internal/repository"

	"go.uber.org/zap"
)

// RetentionWorker periodically deletes query logs older than maxAge.
type RetentionWorker struct {
	repo     repository.QueryLogRepository
	interval time.Duration
	maxAge   time.Duration
	log      *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	running  bool
	stopped  bool
	stopChan chan struct{}
}

func NewRetentionWorker(repo repository.QueryLogRepository, interval, maxAge time.Duration, log *zap.Logger) *RetentionWorker {
	return &RetentionWorker{
		repo:     repo,
		interval: interval,
		maxAge:   maxAge,
		log:      log,
		now:      time.Now,
	}
}

func (w *RetentionWorker) Start() {
	w.mu.Lock()
	if w.running || w.stopped {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.stopChan = make(chan struct{})
	w.mu.Unlock()

	w.log.Info("Retention worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("max_age", w.maxAge))

	w.purge()
	w.run()
}

func (w *RetentionWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	if !w.running {
		return
	}

	close(w.stopChan)
	w.running = false
	w.log.Info("Retention worker stopped")
}

func (w *RetentionWorker) run() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.purge()
		case <-w.stopChan:
			return
		}
	}
}

func (w *RetentionWorker) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := w.now().Add(-w.maxAge)
	deleted, err := w.repo.DeleteOld(ctx, cutoff)
	if err != nil {
		w.log.Error("Retention worker failed to delete query logs", zap.Error(err))
		return
	}
	if deleted > 0 {
		w.log.Info("Retention worker deleted query logs",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff))
	}
}
