package dataset

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// RefreshScheduler re-downloads and reloads the dataset on a cron schedule
// so long-running servers pick up new OWID releases without a restart.
type RefreshScheduler struct {
	cron    *cron.Cron
	svc     *Service
	logger  *slog.Logger
	timeout time.Duration
}

// NewRefreshScheduler creates a scheduler refreshing via svc. timeout
// bounds each refresh attempt.
func NewRefreshScheduler(svc *Service, logger *slog.Logger, timeout time.Duration) *RefreshScheduler {
	return &RefreshScheduler{
		cron:    cron.New(),
		svc:     svc,
		logger:  logger,
		timeout: timeout,
	}
}

// Start registers the refresh job with the given cron spec and starts the
// scheduler. Service.EnsureLoaded serializes overlapping refreshes.
func (s *RefreshScheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.svc.Refresh(ctx); err != nil {
			s.logger.Error("scheduled dataset refresh failed", "error", err)
			return
		}
		s.logger.Info("scheduled dataset refresh complete")
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *RefreshScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
