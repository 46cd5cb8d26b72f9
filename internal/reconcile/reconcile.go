// Package reconcile pushes fallback-only records to the primary store.
//
// When the primary rejects a write, the tiered store keeps the record in
// the fallback flagged pending. Job.Run replays those records against the
// primary and clears the flag on success. Scheduler runs the job on a cron
// schedule inside the server; the reconcile CLI command runs it once.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sakif/intellicrawl/internal/metrics"
	"github.com/sakif/intellicrawl/internal/repository"
)

// Result summarises one run.
type Result struct {
	Pending int `json:"pending"`
	Synced  int `json:"synced"`
	Failed  int `json:"failed"`
}

// Job reconciles the fallback store against the primary.
type Job struct {
	primary  repository.DeveloperRepository
	fallback repository.FallbackRepository
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// New creates a Job. A nil primary makes every run a no-op.
func New(primary repository.DeveloperRepository, fallback repository.FallbackRepository, logger *slog.Logger, m *metrics.Metrics) *Job {
	return &Job{primary: primary, fallback: fallback, logger: logger, metrics: m}
}

// Run replays every pending record. A record that fails stays pending for
// the next run; Run only returns an error when the pending list itself
// can't be read.
func (j *Job) Run(ctx context.Context) (Result, error) {
	if j.primary == nil {
		j.logger.Debug("reconcile skipped, no primary store configured")
		return Result{}, nil
	}

	pending, err := j.fallback.ListPending(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("listing pending developers: %w", err)
	}

	res := Result{Pending: len(pending)}
	for i := range pending {
		if ctx.Err() != nil {
			break
		}
		dev := pending[i]

		if err := j.primary.Create(ctx, &dev); err != nil {
			res.Failed++
			j.logger.Warn("reconcile: primary create failed",
				slog.String("id", dev.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if err := j.fallback.MarkSynced(ctx, dev.ID); err != nil {
			// The primary has it; the next run replays it and the primary skips it.
			res.Failed++
			j.logger.Warn("reconcile: clearing pending flag failed",
				slog.String("id", dev.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		res.Synced++
	}

	remaining := res.Pending - res.Synced
	j.metrics.ReconcileResult(res.Synced, res.Failed, remaining)
	j.logger.Info("reconcile run finished",
		slog.Int("pending", res.Pending),
		slog.Int("synced", res.Synced),
		slog.Int("failed", res.Failed),
	)

	return res, ctx.Err()
}

// Scheduler runs a Job on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	job     *Job
	timeout time.Duration
	logger  *slog.Logger
}

// ValidateSchedule reports whether spec is a schedule the Scheduler accepts:
// five-field cron or a descriptor such as "@every 5m".
func ValidateSchedule(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", spec, err)
	}
	return nil
}

// NewScheduler registers job under spec. Each run gets its own context
// bounded by timeout. A run still in progress when the next tick fires
// makes that tick a no-op.
func NewScheduler(job *Job, spec string, timeout time.Duration, logger *slog.Logger) (*Scheduler, error) {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger)))

	s := &Scheduler{cron: c, job: job, timeout: timeout, logger: logger}
	if _, err := c.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("adding reconcile job: %w", err)
	}
	return s, nil
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.job.Run(ctx); err != nil {
		s.logger.Error("reconcile run failed", slog.String("error", err.Error()))
	}
}

// Start starts the cron goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for a running job to finish, up to ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("reconcile job still running at shutdown")
	}
}
