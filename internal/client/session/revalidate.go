package session

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// StartRevalidation re-runs RefreshMe every interval so that a long-lived
// shell notices revoked or expired sessions. Call stop to end it.
func StartRevalidation(c *Controller, interval time.Duration, log *zap.Logger) (stop func(), err error) {
	s := gocron.NewScheduler(time.UTC)
	_, err = s.Every(interval).WaitForSchedule().SingletonMode().Do(func() {
		if c.State().Token == "" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		defer cancel()
		if err := c.RefreshMe(ctx); err != nil {
			log.Warn("session revalidation failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule revalidation: %w", err)
	}
	s.StartAsync()
	return s.Stop, nil
}
