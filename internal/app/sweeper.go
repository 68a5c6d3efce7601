package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Purger deletes expired availabilities. Implemented by
// service.AvailabilityService.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Sweeper runs the purge sweep on a fixed interval so expiry does not
// depend on feed traffic alone. Failures are logged and never fatal.
type Sweeper struct {
	purger   Purger
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
}

func NewSweeper(purger Purger, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		purger:   purger,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start launches the background sweep loop.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("Starting purge sweeper", zap.Duration("interval", s.interval))
	go s.run(ctx)
}

// Stop stops the background loop.
func (s *Sweeper) Stop() {
	s.logger.Info("Stopping purge sweeper")
	close(s.stopChan)
}

func (s *Sweeper) run(ctx context.Context) {
	// First sweep right at startup.
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopChan:
			s.logger.Info("Purge sweeper stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Purge sweeper cancelled")
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	deleted, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		s.logger.Error("Purge sweep failed", zap.Error(err))
		return
	}

	if deleted > 0 {
		s.logger.Info("Purge sweep completed", zap.Int64("deleted", deleted))
	}
}
