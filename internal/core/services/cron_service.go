package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"libraryhub/internal/pkg/logger"
)

const jobTimeout = 4 * time.Minute

// OverdueSweeper flags borrowals that passed their due date
type OverdueSweeper interface {
	SweepOverdue(ctx context.Context) (int, error)
}

// TokenCleaner removes expired refresh tokens
type TokenCleaner interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// CronService runs the periodic library jobs. A job still running when
// its next tick fires is skipped.
type CronService struct {
	cron    *cron.Cron
	sweeper OverdueSweeper
	tokens  TokenCleaner
}

// NewCronService registers the overdue sweep and token cleanup on their schedules
func NewCronService(sweeper OverdueSweeper, tokens TokenCleaner, overdueSpec, cleanupSpec string) (*CronService, error) {
	cronLog := cron.PrintfLogger(logger.Base())
	s := &CronService{
		cron:    cron.New(cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog))),
		sweeper: sweeper,
		tokens:  tokens,
	}

	if _, err := s.cron.AddFunc(overdueSpec, s.wrap("overdue-sweep", s.runOverdueSweep)); err != nil {
		return nil, fmt.Errorf("schedule overdue sweep %q: %w", overdueSpec, err)
	}
	if _, err := s.cron.AddFunc(cleanupSpec, s.wrap("token-cleanup", s.runTokenCleanup)); err != nil {
		return nil, fmt.Errorf("schedule token cleanup %q: %w", cleanupSpec, err)
	}
	return s, nil
}

// Start launches the scheduler in its own goroutine
func (s *CronService) Start() {
	s.cron.Start()
	logger.Base().Infof("🚀 CronService started with %d jobs", len(s.cron.Entries()))
}

// Stop stops scheduling and waits for running jobs to finish
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	logger.Base().Info("🛑 CronService stopped")
}

func (s *CronService) wrap(name string, job func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		ctx = logger.WithFields(ctx, map[string]interface{}{"job": name})

		start := time.Now()
		if err := job(ctx); err != nil {
			logger.GetLogger(ctx).WithError(err).Errorf("❌ Cron job %s failed", name)
			return
		}
		logger.GetLogger(ctx).Debugf("Cron job %s finished in %s", name, time.Since(start))
	}
}

func (s *CronService) runOverdueSweep(ctx context.Context) error {
	n, err := s.sweeper.SweepOverdue(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		logger.GetLogger(ctx).Infof("⏰ Flagged %d overdue borrowals", n)
	}
	return nil
}

func (s *CronService) runTokenCleanup(ctx context.Context) error {
	n, err := s.tokens.CleanupExpiredTokens(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		logger.GetLogger(ctx).Infof("🧹 Removed %d expired refresh tokens", n)
	}
	return nil
}
