package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/yungbote/iof-learning/internal/platform/logger"
)

// Scheduler runs registered handlers on cron schedules. Runs of the same job never overlap.
type Scheduler struct {
	log      *logger.Logger
	registry *Registry
	cron     *cron.Cron
	timeout  time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewScheduler(baseLog *logger.Logger, registry *Registry, timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		log:      baseLog.With("component", "JobScheduler"),
		registry: registry,
		cron:     cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		timeout:  timeout,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Schedule binds a registered job type to a cron spec ("@every 6h", "0 3 * * *").
func (s *Scheduler) Schedule(jobType, spec string) error {
	if _, ok := s.registry.Get(jobType); !ok {
		return fmt.Errorf("no handler registered for job_type=%s", jobType)
	}
	if _, err := s.cron.AddFunc(spec, func() { _ = s.RunNow(jobType) }); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", jobType, spec, err)
	}
	s.log.Info("Job scheduled", "job_type", jobType, "schedule", spec)
	return nil
}

// RunNow executes one job synchronously with the scheduler's timeout.
func (s *Scheduler) RunNow(jobType string) error {
	h, ok := s.registry.Get(jobType)
	if !ok {
		return fmt.Errorf("no handler registered for job_type=%s", jobType)
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	started := time.Now()
	err := h.Run(ctx)
	if err != nil {
		s.log.Warn("Job failed", "job_type", jobType, "error", err, "duration", time.Since(started))
		return err
	}
	s.log.Debug("Job finished", "job_type", jobType, "duration", time.Since(started))
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs, cancels in-flight ones and waits for them until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
