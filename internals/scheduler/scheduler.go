package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"academy_backend/internals/features/academy/calendar"
	occupancyService "academy_backend/internals/features/academy/occupancy/service"
	scheduleService "academy_backend/internals/features/academy/schedules/service"
)

// cronLogger routes robfig/cron's own messages to zap.
type cronLogger struct{ s *zap.SugaredLogger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}

type Config struct {
	ReconcileSpec   string
	MaterializeSpec string
	HorizonDays     int
	Loc             *time.Location
	JobTimeout      time.Duration
}

type Jobs struct {
	Reconciler   *occupancyService.Reconciler
	Materializer *scheduleService.Materializer
}

// Start registers the reconcile sweep and the session materializer. An
// empty cron expression leaves that job out. Overlapping runs are skipped.
func Start(cfg Config, jobs Jobs, log *zap.Logger) (*cron.Cron, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("scheduler")
	if cfg.Loc == nil {
		cfg.Loc = time.UTC
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 10 * time.Minute
	}
	cl := cronLogger{s: log.Sugar()}
	c := cron.New(
		cron.WithLocation(cfg.Loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	if cfg.ReconcileSpec != "" && jobs.Reconciler != nil {
		_, err := c.AddFunc(cfg.ReconcileSpec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.JobTimeout)
			defer cancel()
			if _, err := jobs.Reconciler.Run(ctx); err != nil {
				log.Error("reconcile job failed", zap.Error(err))
			}
		})
		if err != nil {
			return nil, fmt.Errorf("add reconcile cron %q: %w", cfg.ReconcileSpec, err)
		}
	}

	if cfg.MaterializeSpec != "" && jobs.Materializer != nil && cfg.HorizonDays > 0 {
		_, err := c.AddFunc(cfg.MaterializeSpec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.JobTimeout)
			defer cancel()
			n, err := jobs.Materializer.EnsureAll(ctx, calendar.Today(time.Now(), cfg.Loc), cfg.HorizonDays)
			if err != nil {
				log.Error("materialize job failed", zap.Error(err))
				return
			}
			log.Info("materialize job finished", zap.Int("inserted", n))
		})
		if err != nil {
			return nil, fmt.Errorf("add materialize cron %q: %w", cfg.MaterializeSpec, err)
		}
	}

	log.Info("scheduler started",
		zap.String("reconcile", cfg.ReconcileSpec),
		zap.String("materialize", cfg.MaterializeSpec),
		zap.Int("horizon_days", cfg.HorizonDays))
	c.Start()
	return c, nil
}
