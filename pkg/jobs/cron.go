package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Task is a periodic unit of work run by the Scheduler.
type Task func(ctx context.Context) error

// Scheduler runs named periodic tasks on cron expressions. Overlapping runs of the same task are skipped.
type Scheduler struct {
	cron    *cron.Cron
	logger  *zap.Logger
	timeout time.Duration
}

// NewScheduler constructs a scheduler; timeout bounds a single task run when positive.
func NewScheduler(logger *zap.Logger, timeout time.Duration) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	adapter := cronLogger{logger: logger.Sugar()}
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter))),
		logger:  logger,
		timeout: timeout,
	}
}

// Register adds a task under a cron expression, e.g. "@every 5m" or "*/10 * * * *".
func (s *Scheduler) Register(name, expr string, task Task) error {
	_, err := s.cron.AddFunc(expr, func() {
		ctx := context.Background()
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		started := time.Now()
		if err := task(ctx); err != nil {
			s.logger.Error("cron task failed", zap.String("task", name), zap.Error(err))
			return
		}
		s.logger.Debug("cron task finished", zap.String("task", name), zap.Duration("took", time.Since(started)))
	})
	if err != nil {
		return fmt.Errorf("register cron task %s: %w", name, err)
	}
	s.logger.Info("cron task registered", zap.String("task", name), zap.String("expr", expr))
	return nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits up to ctx for running tasks to complete.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("cron stop timed out")
	}
}

type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
