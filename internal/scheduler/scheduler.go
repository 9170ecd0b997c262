// Package scheduler periodically rebuilds the campus analytics memo so the admin dashboard
// is served warm.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/skill-gap-analyzer/internal/types"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrDisabled is returned by New for an empty schedule.
var ErrDisabled = errors.New("analytics refresh disabled")

const defaultRunTimeout = time.Minute

// Refresher recomputes campus analytics and stores the memo.
type Refresher interface {
	Refresh(ctx context.Context) (types.CampusAnalytics, error)
}

// Scheduler runs the analytics refresh on a standard 5-field cron schedule.
type Scheduler struct {
	cron       *cron.Cron
	refresher  Refresher
	schedule   string
	runTimeout time.Duration
}

// New parses schedule (for example "*/15 * * * *") and registers the refresh job.
func New(schedule string, refresher Refresher) (*Scheduler, error) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		return nil, ErrDisabled
	}

	logger := cronLogger{log.With().Str("component", "scheduler").Logger()}
	s := &Scheduler{
		cron: cron.New(cron.WithLogger(logger), cron.WithChain(
			cron.Recover(logger),
			cron.SkipIfStillRunning(logger),
		)),
		refresher:  refresher,
		schedule:   schedule,
		runTimeout: defaultRunTimeout,
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid analytics refresh schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start runs the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	entries := s.cron.Entries()
	if len(entries) > 0 {
		log.Info().Str("cron", s.schedule).Time("next", entries[0].Next).Msg("Analytics refresh scheduled")
	}
}

// Stop stops scheduling and waits for a running refresh to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce performs one refresh and logs a summary.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()
	result, err := s.refresher.Refresh(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Analytics refresh failed")
		return err
	}
	log.Info().
		Int("total_students", result.TotalStudents).
		Int("average_readiness", result.AverageReadiness).
		Int("roles", len(result.RoleWiseStats)).
		Dur("duration", time.Since(start)).
		Msg("Analytics refreshed")
	return nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()
	_ = s.RunOnce(ctx)
}

// cronLogger routes cron's own logging through zerolog.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
