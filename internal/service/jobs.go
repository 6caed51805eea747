package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper evicts expired in-memory state and reports how much it removed
type Sweeper interface {
	Sweep() int
}

// cronLogger adapts zap to the cron logging interface
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}

// Scheduler runs periodic maintenance jobs
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// NewScheduler creates a scheduler whose jobs recover from panics and never overlap
func NewScheduler(logger *zap.Logger) *Scheduler {
	cl := cronLogger{sugar: logger.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
	}
}

// AddSweep runs sw on the cron spec, for example "@every 5m"
func (s *Scheduler) AddSweep(spec, name string, sw Sweeper) error {
	_, err := s.cron.AddFunc(spec, func() {
		if removed := sw.Sweep(); removed > 0 {
			s.logger.Debug("Swept expired entries", zap.String("job", name), zap.Int("removed", removed))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	return nil
}

// AddNotificationExpiry deactivates expired broadcasts on the cron spec
func (s *Scheduler) AddNotificationExpiry(spec string, notifications *NotificationService) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		count, err := notifications.SweepExpired(ctx)
		if err != nil {
			s.logger.Error("Failed to deactivate expired notifications", zap.Error(err))
			return
		}
		if count > 0 {
			s.logger.Info("Deactivated expired notifications", zap.Int64("count", count))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule notification expiry: %w", err)
	}
	return nil
}

// Start runs the scheduler in the background
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and returns a context done when running jobs finish
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
