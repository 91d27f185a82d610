// Package cron runs the store's maintenance jobs on a cron schedule, one instance at a time.
package cron

import (
	"context"
	"fmt"
	"time"

	robfigcron "github.com/robfig/cron/v3"
	"go.uber.org/multierr"

	"github.com/gastaldl/lojaflow/pkg/logger"
	"github.com/gastaldl/lojaflow/pkg/metrics"
)

// DefaultSchedule runs the maintenance cycle once a day at midnight.
const DefaultSchedule = "@daily"

var scheduleParser = robfigcron.NewParser(
	robfigcron.SecondOptional | robfigcron.Minute | robfigcron.Hour | robfigcron.Dom | robfigcron.Month | robfigcron.Dow | robfigcron.Descriptor,
)

// Job is one maintenance task executed per cycle.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// ServiceParams configure the maintenance scheduler. Metrics, Schedule and
// Location are optional. Schedule accepts five or six field cron expressions
// and descriptors such as "@daily" or "@every 6h".
type ServiceParams struct {
	Logger   *logger.Logger
	Jobs     []Job
	Lock     Lock
	Metrics  *metrics.JobMetrics
	Schedule string
	Location *time.Location
}

// Service executes its jobs on every scheduled activation while holding Lock.
type Service struct {
	logg     *logger.Logger
	jobs     []Job
	lock     Lock
	metrics  *metrics.JobMetrics
	expr     string
	schedule robfigcron.Schedule
	loc      *time.Location
}

// NewService validates the params and drops nil jobs.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	jobs := make([]Job, 0, len(params.Jobs))
	for _, job := range params.Jobs {
		if job != nil {
			jobs = append(jobs, job)
		}
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("at least one job required")
	}
	expr := params.Schedule
	if expr == "" {
		expr = DefaultSchedule
	}
	schedule, err := scheduleParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		logg:     params.Logger,
		jobs:     jobs,
		lock:     params.Lock,
		metrics:  params.Metrics,
		expr:     expr,
		schedule: schedule,
		loc:      loc,
	}, nil
}

// Schedule reports the effective cron expression.
func (s *Service) Schedule() string {
	return s.expr
}

// NextRun reports the first activation strictly after t.
func (s *Service) NextRun(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.loc))
}

// Run executes a cycle immediately and then on every activation until ctx ends.
// Activations that fire while a cycle is still running are skipped.
func (s *Service) Run(ctx context.Context) error {
	s.cycle(ctx)

	c := robfigcron.New(
		robfigcron.WithLocation(s.loc),
		robfigcron.WithChain(robfigcron.SkipIfStillRunning(robfigcron.DiscardLogger)),
	)
	c.Schedule(s.schedule, robfigcron.FuncJob(func() { s.cycle(ctx) }))
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	s.logg.Info(ctx, "maintenance scheduler stopped")
	return ctx.Err()
}

func (s *Service) cycle(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		s.logg.Error(ctx, "maintenance cycle failed", err)
	}
}

// RunOnce executes every job a single time. It returns false without running anything
// when another instance holds the lock. Job failures do not stop later jobs; they are
// combined into the returned error.
func (s *Service) RunOnce(ctx context.Context) (bool, error) {
	acquired, err := s.lock.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire maintenance lock: %w", err)
	}
	if !acquired {
		s.logg.Info(ctx, "maintenance lock held elsewhere, skipping cycle")
		return false, nil
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "release maintenance lock", relErr)
		}
	}()

	var errs error
	for _, job := range s.jobs {
		if ctx.Err() != nil {
			return true, multierr.Append(errs, ctx.Err())
		}
		if err := s.runJob(ctx, job); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", job.Name(), err))
		}
	}
	return true, errs
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	jobCtx := s.logg.WithFields(ctx, map[string]any{
		"job":   job.Name(),
		"event": "maintenance.job",
	})

	start := time.Now()
	err := job.Run(jobCtx)
	elapsed := time.Since(start)

	s.metrics.Observe(job.Name(), elapsed, err)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "maintenance job failed", err)
		return err
	}
	s.logg.Info(jobCtx, "maintenance job completed")
	return nil
}
