// Package monitor runs the background jobs of the server.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultSchedule purges expired links once a minute.
const DefaultSchedule = "@every 1m"

// sweepTimeout bounds a single scheduled purge.
const sweepTimeout = 30 * time.Second

// Purger deletes expired links and reports how many were removed.
type Purger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// ExpirySweeper periodically removes expired links on a cron schedule.
// Overlapping runs are skipped: a slow purge never stacks up behind itself.
type ExpirySweeper struct {
	purger   Purger
	schedule string
	cron     *cron.Cron
	log      zerolog.Logger

	mu      sync.Mutex // protects the fields below
	lastRun time.Time
	purged  int
}

// NewExpirySweeper validates schedule and registers the purge job. An empty schedule means DefaultSchedule.
func NewExpirySweeper(purger Purger, schedule string, log zerolog.Logger) (*ExpirySweeper, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	s := &ExpirySweeper{
		purger:   purger,
		schedule: schedule,
		log:      log.With().Str("component", "expiry-sweeper").Logger(),
	}

	cronLog := cron.PrintfLogger(&s.log)
	s.cron = cron.New(cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)))
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid purge schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start runs a first sweep right away, then hands over to the scheduler. It does not block.
func (s *ExpirySweeper) Start() {
	s.log.Info().Str("schedule", s.schedule).Msg("starting expiry sweeper")
	s.run()
	s.cron.Start()
}

// Stop unschedules the job and waits for a running sweep to finish or ctx to end.
func (s *ExpirySweeper) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info().Msg("expiry sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ExpirySweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	_, _ = s.Sweep(ctx)
}

// Sweep purges expired links once and records the outcome.
// Partial failures still count the links that were removed.
func (s *ExpirySweeper) Sweep(ctx context.Context) (int, error) {
	n, err := s.purger.PurgeExpired(ctx)

	s.mu.Lock()
	s.lastRun = time.Now()
	s.purged += n
	s.mu.Unlock()

	if err != nil {
		s.log.Error().Err(err).Int("purged", n).Msg("expired link purge failed")
		return n, err
	}
	if n > 0 {
		s.log.Info().Int("purged", n).Msg("expired links purged")
	} else {
		s.log.Debug().Msg("no expired links")
	}
	return n, nil
}

// LastRun returns when the last sweep finished and how many links all sweeps removed so far.
func (s *ExpirySweeper) LastRun() (time.Time, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.purged
}
