package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper removes dead records.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// StartTokenSweeper calls s.SweepExpired every interval until ctx is done.
func StartTokenSweeper(ctx context.Context, s Sweeper, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.SweepExpired(ctx)
				if err != nil {
					log.Error("failed to sweep expired tokens", zap.Error(err))
					continue
				}
				if n > 0 {
					log.Info("swept expired tokens", zap.Int64("removed", n))
				}
			}
		}
	}()
}
