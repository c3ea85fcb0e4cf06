package assistant

import (
	"context"
	"log"
	"time"
)

const DefaultSweepInterval = 10 * time.Minute

// StartCacheSweeper periodically evicts expired analysis entries so the
// cache does not grow unbounded between chat turns. Stops with the context.
func (s *Service) StartCacheSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	go s.sweepLoop(ctx, interval)
}

func (s *Service) sweepLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.cache.SweepExpired(); removed > 0 {
				log.Printf("cache sweeper removed %d expired entries", removed)
			}
		}
	}
}
