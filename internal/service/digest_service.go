package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"safeguard/internal/config"
	"safeguard/internal/metrics"
	"safeguard/internal/repository"
)

// DigestService snapshots the previous week for every tracked child and
// mails the report to the configured guardians
type DigestService struct {
	reports      *ReportService
	behaviorRepo *repository.BehaviorRepository
	email        *EmailService
	recipients   func(childID string) []config.DigestRecipient
	logger       *zap.Logger
	metrics      *metrics.Metrics
	cron         *cron.Cron
}

// NewDigestService creates a digest job. email may be disabled, in which
// case snapshots are still stored.
func NewDigestService(
	reports *ReportService,
	behaviorRepo *repository.BehaviorRepository,
	email *EmailService,
	recipients func(childID string) []config.DigestRecipient,
	logger *zap.Logger,
	m *metrics.Metrics,
) *DigestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recipients == nil {
		recipients = func(string) []config.DigestRecipient { return nil }
	}
	cronLog := cronLogger{logger.Sugar()}
	return &DigestService{
		reports:      reports,
		behaviorRepo: behaviorRepo,
		email:        email,
		recipients:   recipients,
		logger:       logger,
		metrics:      m,
		// Prevent overlapping runs
		cron: cron.New(cron.WithSeconds(), cron.WithLogger(cronLog), cron.WithChain(cron.SkipIfStillRunning(cronLog))),
	}
}

// Start schedules RunOnce with a six-field cron expression
func (s *DigestService) Start(ctx context.Context, schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if err := s.RunOnce(ctx); err != nil {
			s.logger.Error("weekly digest run failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add digest job: %w", err)
	}

	s.logger.Info("weekly digest scheduled", zap.String("schedule", schedule))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and returns a context done when running jobs finish
func (s *DigestService) Stop() context.Context {
	return s.cron.Stop()
}

// RunOnce stores last week's report for every child and emails new
// snapshots. A failure for one child does not stop the others.
func (s *DigestService) RunOnce(ctx context.Context) error {
	childIDs, err := s.behaviorRepo.ListChildIDs(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, childID := range childIDs {
		if err := s.digestChild(ctx, childID); err != nil {
			errs = append(errs, fmt.Errorf("child %s: %w", childID, err))
		}
	}
	return errors.Join(errs...)
}

func (s *DigestService) digestChild(ctx context.Context, childID string) error {
	report, saved, err := s.reports.SnapshotPreviousWeek(ctx, childID)
	if err != nil {
		return err
	}
	if !saved {
		s.metrics.RecordDigest("already_sent")
		return nil
	}

	recipients := s.recipients(childID)
	if len(recipients) == 0 || !s.email.IsEnabled() {
		s.metrics.RecordDigest("stored")
		return nil
	}

	var errs []error
	for _, r := range recipients {
		if err := s.email.SendWeeklyDigest(ctx, r.Email, r.Name, report); err != nil {
			s.metrics.RecordDigest("failed")
			s.logger.Warn("weekly digest email failed", zap.String("child_id", childID), zap.String("to", r.Email), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		s.metrics.RecordDigest("sent")
	}
	return errors.Join(errs...)
}

// cronLogger routes cron's logging through zap
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
