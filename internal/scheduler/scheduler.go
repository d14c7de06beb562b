// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/helixir/paper-discovery-service/internal/observability"
)

const defaultJobTimeout = 5 * time.Minute

// Purger removes recent searches created before a cutoff.
type Purger interface {
	PurgeRecentSearches(ctx context.Context, cutoff time.Time) (int64, error)
}

// Config holds configuration for the scheduler.
type Config struct {
	// Retention is how long recent searches are kept. Zero disables the job.
	Retention time.Duration
	// Schedule is a standard five-field cron spec or descriptor such as "@hourly".
	Schedule string
	// JobTimeout bounds one run of the retention job. Zero uses 5m.
	JobTimeout time.Duration
}

// Scheduler runs the recent-search retention job.
type Scheduler struct {
	cron       *cron.Cron
	purger     Purger
	retention  time.Duration
	jobTimeout time.Duration
	now        func() time.Time
	metrics    *observability.Metrics
	logger     zerolog.Logger
}

// New creates a Scheduler. The schedule is parsed eagerly so that a bad spec
// fails at startup.
func New(cfg Config, purger Purger, metrics *observability.Metrics, logger zerolog.Logger) (*Scheduler, error) {
	jobTimeout := cfg.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = defaultJobTimeout
	}

	s := &Scheduler{
		cron:       cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		purger:     purger,
		retention:  cfg.Retention,
		jobTimeout: jobTimeout,
		now:        time.Now,
		metrics:    metrics,
		logger:     observability.WithComponent(logger, "scheduler"),
	}

	if cfg.Retention <= 0 {
		s.logger.Info().Msg("recent search retention disabled")
		return s, nil
	}

	if _, err := s.cron.AddFunc(cfg.Schedule, s.runRetention); err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", cfg.Schedule, err)
	}
	return s, nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.logger.Info().Int("jobs", len(s.cron.Entries())).Msg("starting scheduler")
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running job to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info().Msg("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) runRetention() {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	if _, err := s.PurgeOnce(ctx); err != nil {
		s.logger.Error().Err(err).Msg("recent search retention failed")
	}
}

// PurgeOnce deletes recent searches older than the retention and returns the
// number removed. It does nothing when retention is disabled.
func (s *Scheduler) PurgeOnce(ctx context.Context) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}

	cutoff := s.now().Add(-s.retention)
	removed, err := s.purger.PurgeRecentSearches(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge recent searches: %w", err)
	}

	s.metrics.RecordRecentSearchesPurged(removed)
	s.logger.Info().
		Int64("removed", removed).
		Time("cutoff", cutoff).
		Msg("recent search retention completed")
	return removed, nil
}
