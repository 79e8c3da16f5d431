package database

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Persister is anything that can snapshot its whole state.
type Persister interface {
	PersistAll() error
}

// Snapshotter periodically persists a database in the background.
// Persistence stays out of the request path: a failed round is logged and
// retried on the next tick.
type Snapshotter struct {
	target   Persister
	logger   *zap.Logger
	ctx      context.Context    // Internal context for Stop
	cancel   context.CancelFunc // Cancels ctx
	interval time.Duration
	wg       sync.WaitGroup

	mu       sync.Mutex
	rounds   int
	failures int
	lastRun  time.Time
}

// SnapshotterStats reports what the snapshotter has done so far
type SnapshotterStats struct {
	Rounds   int
	Failures int
	LastRun  time.Time
}

// NewSnapshotter creates a snapshotter that persists target every interval.
//
// Example:
//
//	s := NewSnapshotter(db, 30*time.Second, logger)
//	go s.Start(ctx)
//	defer s.Stop()
func NewSnapshotter(target Persister, interval time.Duration, logger *zap.Logger) *Snapshotter {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Snapshotter{
		target:   target,
		interval: interval,
		logger:   logger.With(zap.String("component", "snapshotter")),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start runs the snapshot loop in the current goroutine.
// It blocks until ctx is canceled or Stop is called. A non-positive
// interval returns immediately.
func (s *Snapshotter) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("periodic snapshots disabled")
		return
	}

	// Registering under mu keeps Add ordered against Stop's Wait
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	if ctx == nil {
		ctx = s.ctx
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("snapshotter started", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ticker.C:
			s.runOnce()
		case <-ctx.Done():
			s.logger.Debug("snapshotter stopping due to context cancellation")
			return
		case <-s.ctx.Done():
			s.logger.Debug("snapshotter stopping due to internal cancellation")
			return
		}
	}
}

// Stop cancels the loop and waits for an in-flight round to finish
func (s *Snapshotter) Stop() {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	s.wg.Wait()
	s.logger.Info("snapshotter stopped")
}

// Stats returns a copy of the snapshotter counters
func (s *Snapshotter) Stats() SnapshotterStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SnapshotterStats{
		Rounds:   s.rounds,
		Failures: s.failures,
		LastRun:  s.lastRun,
	}
}

func (s *Snapshotter) runOnce() {
	start := time.Now()
	err := s.target.PersistAll()

	s.mu.Lock()
	s.rounds++
	s.lastRun = start
	if err != nil {
		s.failures++
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("periodic snapshot failed", zap.Error(err))
		return
	}
	s.logger.Debug("periodic snapshot done", zap.Duration("took", time.Since(start)))
}
