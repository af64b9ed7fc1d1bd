package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs named periodic tasks on standard five-field cron specs.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler builds a scheduler evaluating specs in loc (UTC when nil).
func NewScheduler(loc *time.Location, logger *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers task under spec. Overlapping runs of the same task are skipped.
func (s *Scheduler) Add(name, spec string, task func(context.Context) error) error {
	job := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() {
		start := time.Now()
		if err := task(s.ctx); err != nil {
			s.logger.Error("scheduled task failed", zap.String("task", name), zap.Error(err))
			return
		}
		s.logger.Info("scheduled task finished", zap.String("task", name), zap.Duration("took", time.Since(start)))
	}))
	if _, err := s.cron.AddJob(spec, job); err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

// Start launches the scheduler loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running tasks to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}
