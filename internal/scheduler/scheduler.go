package scheduler

import (
	"context"
	"fmt"
	"time"

	achievement "algomancy.gg/deckhub/internal/modules/achievement/service"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a unit of background work. Jobs with an empty Schedule are only run
// on demand through RunJob.
type Job interface {
	Name() string
	Schedule() string
	Run(ctx context.Context) error
}

type Scheduler struct {
	cron *cron.Cron
	jobs []Job
	log  *zap.Logger
}

func NewScheduler(log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		cron: cron.New(),
		log:  log.Named("scheduler"),
	}
}

// Register adds a job and schedules it when it carries a cron spec.
func (s *Scheduler) Register(job Job) error {
	spec := job.Schedule()
	if spec != "" {
		if _, err := s.cron.AddFunc(spec, func() { s.run(context.Background(), job) }); err != nil {
			return fmt.Errorf("schedule %s (%q): %w", job.Name(), spec, err)
		}
		s.log.Info("job scheduled", zap.String("job", job.Name()), zap.String("cron", spec))
	} else {
		s.log.Info("job registered on demand", zap.String("job", job.Name()))
	}
	s.jobs = append(s.jobs, job)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", zap.Int("jobs", len(s.jobs)))
}

// Stop halts the cron loop and waits for running jobs up to ctx's deadline.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out with jobs still running")
	}
}

// RunJob executes a registered job immediately.
func (s *Scheduler) RunJob(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name() == name {
			return s.run(ctx, job)
		}
	}
	return fmt.Errorf("job %q not registered", name)
}

func (s *Scheduler) JobNames() []string {
	names := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		names[i] = job.Name()
	}
	return names
}

func (s *Scheduler) run(ctx context.Context, job Job) error {
	start := time.Now()
	err := job.Run(ctx)
	if err != nil {
		s.log.Error("job failed", zap.String("job", job.Name()), zap.Duration("took", time.Since(start)), zap.Error(err))
		return err
	}
	s.log.Info("job completed", zap.String("job", job.Name()), zap.Duration("took", time.Since(start)))
	return nil
}

// Refresher is the slice of the achievement service the reconcile job needs.
type Refresher interface {
	RefreshAll(ctx context.Context, concurrency int) (achievement.RefreshSummary, error)
}

// XPReconcileJob recomputes every user's XP so counters that drifted (for
// example after a lost async refresh) converge again.
type XPReconcileJob struct {
	refresher   Refresher
	spec        string
	concurrency int
	log         *zap.Logger
}

func NewXPReconcileJob(refresher Refresher, spec string, concurrency int, log *zap.Logger) *XPReconcileJob {
	if log == nil {
		log = zap.NewNop()
	}
	return &XPReconcileJob{
		refresher:   refresher,
		spec:        spec,
		concurrency: concurrency,
		log:         log.Named("xp_reconcile"),
	}
}

func (j *XPReconcileJob) Name() string     { return "xp-reconcile" }
func (j *XPReconcileJob) Schedule() string { return j.spec }

func (j *XPReconcileJob) Run(ctx context.Context) error {
	summary, err := j.refresher.RefreshAll(ctx, j.concurrency)
	if err != nil {
		return err
	}
	j.log.Info("xp reconciled",
		zap.Int("total", summary.Total),
		zap.Int("refreshed", summary.Refreshed),
		zap.Int("failed", summary.Failed),
	)
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d users failed to refresh", summary.Failed, summary.Total)
	}
	return nil
}
