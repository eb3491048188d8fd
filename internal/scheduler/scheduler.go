package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"IncomeLens/internal/session"
)

// Dispatcher accepts session events. *session.Session satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev session.Event) error
}

// Scheduler manages the cron tasks that feed the session.
type Scheduler struct {
	Cron    *cron.Cron
	Session Dispatcher
	Ctx     context.Context
	logger  *zap.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, sess Dispatcher, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		Cron:    cron.New(),
		Session: sess,
		Ctx:     ctx,
		logger:  logger,
	}
}

// RegisterAutoRetry fires a Retry on the given schedule. An empty schedule
// registers nothing.
func (s *Scheduler) RegisterAutoRetry(spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := s.Cron.AddFunc(spec, s.RunRetryNow); err != nil {
		return fmt.Errorf("register auto-retry task: %w", err)
	}
	s.logger.Info("auto-retry registered", zap.String("cron", spec))
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunRetryNow dispatches a Retry immediately. Outside the Error state the
// session rejects it and nothing happens.
func (s *Scheduler) RunRetryNow() {
	err := s.Session.Dispatch(s.Ctx, session.Retry{})
	switch {
	case err == nil:
		s.logger.Info("auto-retry started a reload")
	case errors.Is(err, session.ErrNotApplicable):
		s.logger.Debug("auto-retry skipped, not in error state")
	case s.Ctx.Err() != nil:
	default:
		s.logger.Error("auto-retry", zap.Error(err))
	}
}
