package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartWorker runs RunOnce every interval until ctx is cancelled. A run that
// is still going when the next one is due delays it instead of overlapping.
func (u *Updater) StartWorker(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid worker interval: %s", interval)
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			u.runScheduled(ctx)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("failed to schedule price updates: %w", err)
	}

	s.Start()
	u.logger.Info("price update worker started", "interval", interval)

	<-ctx.Done()

	u.logger.Info("price update worker stopping")
	if err := s.Shutdown(); err != nil {
		u.logger.Error("scheduler shutdown error", "error", err)
	}
	return nil
}

func (u *Updater) runScheduled(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := u.RunOnce(ctx); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			u.logger.Info("skipping scheduled price update, previous run still active")
			return
		}
		u.logger.Error("scheduled price update failed", "error", err)
	}
}
