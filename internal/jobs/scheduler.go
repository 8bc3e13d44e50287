// Package jobs runs the periodic maintenance tasks: sweeping expired
// rate-limit windows and reconciling vote tallies.
package jobs

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/metrics"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/repository"
)

// Sweeper drops expired rate-limit windows and reports how many it removed.
type Sweeper interface {
	Sweep() int
}

// Reconciler corrects drifted tallies.
type Reconciler interface {
	Tick(ctx context.Context) (repository.TallyReport, error)
}

// Scheduler wraps a cron runner. Overlapping runs of the same job are skipped.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// NewScheduler creates a scheduler with no jobs.
func NewScheduler(log zerolog.Logger) *Scheduler {
	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		log:  log,
	}
}

// AddSweep sweeps every limiter on schedule (e.g. "@every 5m").
func (s *Scheduler) AddSweep(schedule string, limiters map[string]Sweeper) error {
	_, err := s.cron.AddFunc(schedule, func() {
		total := 0
		for name, l := range limiters {
			n := l.Sweep()
			total += n
			if n > 0 {
				s.log.Debug().Str("limiter", name).Int("removed", n).Msg("ratelimit sweep")
			}
		}
		metrics.RateLimitSwept.Add(float64(total))
	})
	if err != nil {
		return fmt.Errorf("schedule sweep %q: %w", schedule, err)
	}
	return nil
}

// AddReconcile runs r on schedule. Each run gets ctx so shutdown cancels it.
func (s *Scheduler) AddReconcile(ctx context.Context, schedule string, r Reconciler) error {
	_, err := s.cron.AddFunc(schedule, func() {
		_, _ = r.Tick(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule reconcile %q: %w", schedule, err)
	}
	return nil
}

// Run starts the scheduler and blocks until ctx is cancelled, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")

	<-ctx.Done()

	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
	return nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
