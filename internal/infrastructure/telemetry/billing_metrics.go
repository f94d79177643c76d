package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when BillingMetrics is built without a meter.
var ErrMeterNil = errors.New("billing metrics: meter cannot be nil")

// DebtSnapshot is the outstanding debt of one tenant at a point in time.
type DebtSnapshot struct {
	PendingDebt    decimal.Decimal
	OverdueClients int64
}

// DebtProvider computes debt snapshots for the periodic gauges.
type DebtProvider interface {
	DebtSnapshot(ctx context.Context, tenantID uuid.UUID) (DebtSnapshot, error)
}

// TenantProvider lists the tenants to collect gauges for.
type TenantProvider interface {
	ListTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// BillingMetricsConfig holds configuration for billing metrics.
type BillingMetricsConfig struct {
	Meter        metric.Meter
	Logger       *zap.Logger
	DebtProvider DebtProvider
}

// BillingMetrics tracks invoicing and collection activity.
type BillingMetrics struct {
	logger *zap.Logger

	invoicesIssued    *Counter
	invoicedCents     *Counter
	paymentsRecorded  *Counter
	collectedCents    *Counter
	pendingDebt       *FloatGauge
	overdueClients    *Gauge
	generationSkipped *Counter

	debtProvider DebtProvider
	stopChan     chan struct{}
	stopOnce     sync.Once
	collectOnce  sync.Once
}

// NewBillingMetrics creates the billing instruments on the given meter.
func NewBillingMetrics(cfg BillingMetricsConfig) (*BillingMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BillingMetrics{
		logger:       logger,
		debtProvider: cfg.DebtProvider,
		stopChan:     make(chan struct{}),
	}

	var err error
	if bm.invoicesIssued, err = NewCounter(cfg.Meter, "billing_invoices_issued_total", "Invoices created", "{invoices}"); err != nil {
		return nil, err
	}
	if bm.invoicedCents, err = NewCounter(cfg.Meter, "billing_invoiced_amount_total", "Invoiced amount in cents", "{cents}"); err != nil {
		return nil, err
	}
	if bm.paymentsRecorded, err = NewCounter(cfg.Meter, "billing_payments_total", "Payments recorded", "{payments}"); err != nil {
		return nil, err
	}
	if bm.collectedCents, err = NewCounter(cfg.Meter, "billing_collected_amount_total", "Collected amount in cents", "{cents}"); err != nil {
		return nil, err
	}
	if bm.generationSkipped, err = NewCounter(cfg.Meter, "billing_generation_skipped_total", "Clients skipped by monthly generation", "{clients}"); err != nil {
		return nil, err
	}
	if bm.pendingDebt, err = NewFloatGauge(cfg.Meter, "billing_pending_debt", "Outstanding debt of pending invoices", "{currency}"); err != nil {
		return nil, err
	}
	if bm.overdueClients, err = NewGauge(cfg.Meter, "billing_overdue_clients", "Clients with debt past the latest due date", "{clients}"); err != nil {
		return nil, err
	}
	return bm, nil
}

// RecordInvoiceIssued counts an invoice and its amount.
func (bm *BillingMetrics) RecordInvoiceIssued(ctx context.Context, tenantID uuid.UUID, source string, amount decimal.Decimal) {
	tenant := AttrTenantID.String(tenantID.String())
	bm.invoicesIssued.Inc(ctx, tenant, AttrInvoiceSource.String(source))
	bm.invoicedCents.Add(ctx, toCents(amount), tenant)
}

// RecordPayment counts a payment and its amount.
func (bm *BillingMetrics) RecordPayment(ctx context.Context, tenantID uuid.UUID, method string, amount decimal.Decimal) {
	tenant := AttrTenantID.String(tenantID.String())
	bm.paymentsRecorded.Inc(ctx, tenant, AttrPaymentMethod.String(method))
	bm.collectedCents.Add(ctx, toCents(amount), tenant)
}

// RecordGenerationSkipped counts clients a generation run left out.
func (bm *BillingMetrics) RecordGenerationSkipped(ctx context.Context, tenantID uuid.UUID, count int) {
	if count <= 0 {
		return
	}
	bm.generationSkipped.Add(ctx, int64(count), AttrTenantID.String(tenantID.String()))
}

// RecordDebt records the debt gauges of one tenant.
func (bm *BillingMetrics) RecordDebt(ctx context.Context, tenantID uuid.UUID, snapshot DebtSnapshot) {
	tenant := AttrTenantID.String(tenantID.String())
	bm.pendingDebt.Record(ctx, snapshot.PendingDebt.InexactFloat64(), tenant)
	bm.overdueClients.Record(ctx, snapshot.OverdueClients, tenant)
}

// StartPeriodicCollection refreshes the debt gauges every interval until
// Stop is called or ctx ends. It is non-blocking.
func (bm *BillingMetrics) StartPeriodicCollection(ctx context.Context, tenants TenantProvider, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go bm.runPeriodicCollection(ctx, tenants, interval)
	})
}

func (bm *BillingMetrics) runPeriodicCollection(ctx context.Context, tenants TenantProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.collect(ctx, tenants)
	for {
		select {
		case <-bm.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			bm.collect(ctx, tenants)
		}
	}
}

func (bm *BillingMetrics) collect(ctx context.Context, tenants TenantProvider) {
	if bm.debtProvider == nil {
		return
	}
	tenantIDs, err := tenants.ListTenantIDs(ctx)
	if err != nil {
		bm.logger.Error("Failed to list tenants for metrics collection", zap.Error(err))
		return
	}
	for _, tenantID := range tenantIDs {
		snapshot, err := bm.debtProvider.DebtSnapshot(ctx, tenantID)
		if err != nil {
			bm.logger.Warn("Failed to compute debt snapshot",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
			continue
		}
		bm.RecordDebt(ctx, tenantID, snapshot)
	}
}

// Stop stops the periodic collection.
func (bm *BillingMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
