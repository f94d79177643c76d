package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cablenet/billing/internal/domain/billing"
	"github.com/cablenet/billing/internal/domain/shared"
	"github.com/cablenet/billing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SkipRecorder counts clients the generator left alone.
type SkipRecorder interface {
	RecordGenerationSkipped(ctx context.Context, tenantID uuid.UUID, count int)
}

// InvoiceGenerator issues the monthly invoice of every client with a plan.
// Running it again in the same month creates nothing new.
type InvoiceGenerator struct {
	txScope        TransactionScope
	dueOffsetDays  int
	eventPublisher shared.EventPublisher
	skips          SkipRecorder
	logger         *zap.Logger
}

// NewInvoiceGenerator creates a generator whose invoices fall due
// dueOffsetDays after their issue date.
func NewInvoiceGenerator(txScope TransactionScope, dueOffsetDays int, logger *zap.Logger) *InvoiceGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceGenerator{
		txScope:       txScope,
		dueOffsetDays: dueOffsetDays,
		logger:        logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (g *InvoiceGenerator) SetEventPublisher(publisher shared.EventPublisher) {
	g.eventPublisher = publisher
}

// SetSkipRecorder sets the metrics sink for skipped clients
func (g *InvoiceGenerator) SetSkipRecorder(r SkipRecorder) {
	g.skips = r
}

// GenerateMonthly creates the invoices of asOf's calendar month for the tenant.
// Clients without a plan, clients already invoiced in the month and clients
// whose invoice fails validation are reported as skipped. Any store error
// rolls the whole run back. A zero asOf means today.
func (g *InvoiceGenerator) GenerateMonthly(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*GenerationResult, error) {
	if asOf.IsZero() {
		asOf = time.Now()
	}
	period := billing.PeriodOf(asOf)
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice_generator", "generate_monthly")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrPeriod, period.String(),
	)

	var (
		result  *GenerationResult
		created []*billing.Invoice
	)
	err := g.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		// Reset so a retried closure starts clean.
		result = &GenerationResult{
			TenantID: tenantID,
			Period:   period.String(),
			AsOf:     billing.DateOf(asOf).Format(DateLayout),
			Skipped:  []SkippedClient{},
			Invoices: []uuid.UUID{},
		}
		created = nil

		clients, err := repos.ClientRepo().List(ctx, tenantID)
		if err != nil {
			return fmt.Errorf("failed to load clients: %w", err)
		}

		for i := range clients {
			c := &clients[i]
			if !c.HasPlan() {
				result.skip(c.ID, SkipReasonNoPlan)
				continue
			}

			existing, err := repos.InvoiceRepo().FindByClientAndPeriod(ctx, tenantID, c.ID, period)
			if err != nil {
				return fmt.Errorf("failed to check invoice of client %s: %w", c.ID, err)
			}
			if existing != nil {
				result.skip(c.ID, SkipReasonAlreadyInvoiced)
				continue
			}

			inv, err := billing.NewMonthlyInvoice(tenantID, c.ID, c.PlanType, asOf, g.dueOffsetDays)
			if err != nil {
				var domainErr *shared.DomainError
				if errors.As(err, &domainErr) {
					g.logger.Warn("skipping client with invalid invoice",
						zap.String("client_id", c.ID.String()),
						zap.String("reason", domainErr.Code),
					)
					result.skip(c.ID, SkipReasonInvalid)
					continue
				}
				return err
			}

			ok, err := repos.InvoiceRepo().CreateIfAbsent(ctx, inv)
			if err != nil {
				return fmt.Errorf("failed to create invoice of client %s: %w", c.ID, err)
			}
			if !ok {
				// Lost the race against a concurrent run.
				result.skip(c.ID, SkipReasonAlreadyInvoiced)
				continue
			}
			created = append(created, inv)
			result.Invoices = append(result.Invoices, inv.ID)
		}
		result.Created = len(created)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		g.logger.Error("monthly invoice generation failed",
			zap.String("tenant_id", tenantID.String()),
			zap.String("period", period.String()),
			zap.Error(err),
		)
		return nil, err
	}

	for _, inv := range created {
		publishDomainEvents(ctx, g.eventPublisher, inv)
	}
	if g.skips != nil && len(result.Skipped) > 0 {
		g.skips.RecordGenerationSkipped(ctx, tenantID, len(result.Skipped))
	}

	telemetry.SetAttributes(span, "created", result.Created, "skipped", len(result.Skipped))
	g.logger.Info("monthly invoices generated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("period", period.String()),
		zap.Int("created", result.Created),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

func (r *GenerationResult) skip(clientID uuid.UUID, reason string) {
	r.Skipped = append(r.Skipped, SkippedClient{ClientID: clientID, Reason: reason})
}
