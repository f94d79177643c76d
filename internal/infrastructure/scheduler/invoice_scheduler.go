// Package scheduler runs the monthly invoice generation on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	appbilling "github.com/cablenet/billing/internal/application/billing"
	"github.com/cablenet/billing/internal/domain/billing"
	"github.com/cablenet/billing/internal/infrastructure/cache"
	"github.com/cablenet/billing/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// MonthlyGenerator issues the invoices of one tenant for the month of asOf
type MonthlyGenerator interface {
	GenerateMonthly(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*appbilling.GenerationResult, error)
}

// TenantLister lists the tenants to invoice
type TenantLister interface {
	ListTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// RunStore keeps the history of generation runs
type RunStore interface {
	Start(ctx context.Context, tenantID uuid.UUID, period string, trigger RunTrigger, attempt int) (*GenerationRun, error)
	Finish(ctx context.Context, run *GenerationRun) error
}

// InvoiceScheduler triggers monthly generation for every tenant. Each
// (tenant, period) pair runs under a distributed lock so that several
// instances firing the same cron entry do not race each other.
type InvoiceScheduler struct {
	cfg       config.SchedulerConfig
	generator MonthlyGenerator
	tenants   TenantLister
	locker    cache.Locker
	runs      RunStore
	logger    *zap.Logger
	location  *time.Location
	schedule  cron.Schedule
	now       func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// NewInvoiceScheduler validates the cron expression and timezone
func NewInvoiceScheduler(
	cfg config.SchedulerConfig,
	generator MonthlyGenerator,
	tenants TenantLister,
	locker cache.Locker,
	logger *zap.Logger,
) (*InvoiceScheduler, error) {
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, cfg.Timezone, err)
	}
	schedule, err := cron.ParseStandard(cfg.InvoiceCronSchedule)
	if err != nil {
		return nil, fmt.Errorf("%w: cron %q: %v", ErrInvalidConfig, cfg.InvoiceCronSchedule, err)
	}

	return &InvoiceScheduler{
		cfg:       cfg,
		generator: generator,
		tenants:   tenants,
		locker:    locker,
		logger:    logger,
		location:  location,
		schedule:  schedule,
		now:       time.Now,
	}, nil
}

// SetRunStore enables run history
func (s *InvoiceScheduler) SetRunStore(runs RunStore) {
	s.runs = runs
}

// Start registers the cron entry and starts the cron goroutine
func (s *InvoiceScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return ErrAlreadyRunning
	}

	log := cronLogger{s.logger.Sugar()}
	c := cron.New(
		cron.WithLocation(s.location),
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)
	c.Schedule(s.schedule, cron.FuncJob(func() {
		_ = s.RunAll(context.Background(), RunTriggerCron)
	}))
	c.Start()
	s.cron = c

	s.logger.Info("Invoice scheduler started",
		zap.String("schedule", s.cfg.InvoiceCronSchedule),
		zap.String("timezone", s.location.String()),
		zap.Time("next_run", s.schedule.Next(s.now().In(s.location))))
	return nil
}

// Stop stops the cron and waits for a running generation to finish or ctx to expire
func (s *InvoiceScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return nil
	}

	select {
	case <-c.Stop().Done():
		s.logger.Info("Invoice scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunAll generates the current month's invoices for every tenant. A failing
// tenant does not stop the others; their errors are joined.
func (s *InvoiceScheduler) RunAll(ctx context.Context, trigger RunTrigger) error {
	asOf := s.Today()

	tenantIDs, err := s.tenants.ListTenantIDs(ctx)
	if err != nil {
		s.logger.Error("Failed to list tenants for invoice generation", zap.Error(err))
		return fmt.Errorf("failed to list tenants: %w", err)
	}

	var errs []error
	for _, tenantID := range tenantIDs {
		if _, err := s.RunTenant(ctx, tenantID, asOf, trigger); err != nil {
			if errors.Is(err, ErrGenerationInProgress) {
				continue
			}
			errs = append(errs, fmt.Errorf("tenant %s: %w", tenantID, err))
		}
	}
	return errors.Join(errs...)
}

// Today returns the current time in the scheduler's timezone, which decides
// the billing month of every run without an explicit date.
func (s *InvoiceScheduler) Today() time.Time {
	return s.now().In(s.location)
}

// GenerateMonthly runs a manual generation through the same lock as the cron.
// A zero asOf bills the current month in the scheduler's timezone.
func (s *InvoiceScheduler) GenerateMonthly(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*appbilling.GenerationResult, error) {
	if asOf.IsZero() {
		asOf = s.Today()
	}
	return s.RunTenant(ctx, tenantID, asOf, RunTriggerManual)
}

// RunTenant generates one tenant's invoices for the month of asOf, retrying
// failed attempts up to RetryAttempts times while holding the lock.
func (s *InvoiceScheduler) RunTenant(ctx context.Context, tenantID uuid.UUID, asOf time.Time, trigger RunTrigger) (*appbilling.GenerationResult, error) {
	period := billing.PeriodOf(asOf).String()
	logger := s.logger.With(
		zap.String("tenant_id", tenantID.String()),
		zap.String("period", period),
		zap.String("trigger", string(trigger)))

	release, err := s.locker.Acquire(ctx, fmt.Sprintf("generate:%s:%s", tenantID, period), s.cfg.LockTTL)
	if errors.Is(err, cache.ErrLockHeld) {
		logger.Info("Invoice generation already running elsewhere, skipping")
		if run := s.startRun(ctx, tenantID, period, trigger, 1, logger); run != nil {
			run.locked()
			s.finishRun(ctx, run, logger)
		}
		return nil, ErrGenerationInProgress
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("Failed to release generation lock", zap.Error(err))
		}
	}()

	maxAttempts := 1 + max(s.cfg.RetryAttempts, 0)
	for attempt := 1; ; attempt++ {
		run := s.startRun(ctx, tenantID, period, trigger, attempt, logger)

		result, err := s.generate(ctx, tenantID, asOf)
		if err == nil {
			if run != nil {
				run.complete(result.Created, len(result.Skipped))
				s.finishRun(ctx, run, logger)
			}
			return result, nil
		}

		if run != nil {
			run.fail(err)
			s.finishRun(ctx, run, logger)
		}
		if attempt >= maxAttempts || ctx.Err() != nil {
			logger.Error("Invoice generation failed", zap.Int("attempt", attempt), zap.Error(err))
			return nil, err
		}

		logger.Warn("Invoice generation failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("retry_delay", s.cfg.RetryDelay),
			zap.Error(err))
		select {
		case <-time.After(s.cfg.RetryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (s *InvoiceScheduler) generate(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*appbilling.GenerationResult, error) {
	if s.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.JobTimeout)
		defer cancel()
	}
	return s.generator.GenerateMonthly(ctx, tenantID, asOf)
}

// startRun returns nil when run history is disabled or unavailable;
// generation proceeds either way.
func (s *InvoiceScheduler) startRun(ctx context.Context, tenantID uuid.UUID, period string, trigger RunTrigger, attempt int, logger *zap.Logger) *GenerationRun {
	if s.runs == nil {
		return nil
	}
	run, err := s.runs.Start(ctx, tenantID, period, trigger, attempt)
	if err != nil {
		logger.Warn("Failed to record generation run", zap.Error(err))
		return nil
	}
	return run
}

func (s *InvoiceScheduler) finishRun(ctx context.Context, run *GenerationRun, logger *zap.Logger) {
	if err := s.runs.Finish(context.WithoutCancel(ctx), run); err != nil {
		logger.Warn("Failed to update generation run", zap.String("run_id", run.ID.String()), zap.Error(err))
	}
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
