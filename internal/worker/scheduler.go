package worker

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type Worker interface {
	Start()
	Stop()
}

type Scheduler struct {
	workers     []Worker
	wg          sync.WaitGroup
	stopped     bool
	mu          sync.RWMutex
	log         *zap.Logger
	stopTimeout time.Duration
}

func NewScheduler(log *zap.Logger) *Scheduler {
	return &Scheduler{
		workers:     make([]Worker, 0),
		log:         log,
		stopTimeout: 10 * time.Second,
	}
}

func (s *Scheduler) AddWorker(worker Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers = append(s.workers, worker)
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	s.log.Info("Starting scheduler", zap.Int("workers", len(s.workers)))

	for _, worker := range s.workers {
		s.wg.Add(1)
		go func(w Worker) {
			defer s.wg.Done()
			w.Start()
		}(worker)
	}
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	workers := s.workers
	s.mu.Unlock()

	s.log.Info("Stopping scheduler...")

	for _, worker := range workers {
		worker.Stop()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("Scheduler stopped gracefully")
	case <-time.After(s.stopTimeout):
		s.log.Warn("Scheduler stop timeout", zap.Duration("timeout", s.stopTimeout))
	}
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.stopped
}
