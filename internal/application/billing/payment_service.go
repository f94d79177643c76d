package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/cablenet/billing/internal/domain/billing"
	"github.com/cablenet/billing/internal/domain/shared"
	"github.com/cablenet/billing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

// PaymentService records payments and marks their invoices paid atomically
type PaymentService struct {
	txScope        TransactionScope
	paymentRepo    billing.PaymentRepository
	eventPublisher shared.EventPublisher
	now            func() time.Time
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(txScope TransactionScope, paymentRepo billing.PaymentRepository) *PaymentService {
	return &PaymentService{
		txScope:     txScope,
		paymentRepo: paymentRepo,
		now:         time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PaymentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Record stores a payment and moves its invoice to paid in one transaction.
// A payment against an invoice that is already paid is stored without
// touching the invoice.
func (s *PaymentService) Record(ctx context.Context, tenantID uuid.UUID, req CreatePaymentRequest) (*RecordPaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "record")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrInvoiceID, req.InvoiceID.String(),
		telemetry.SpanAttrAmount, req.AmountPaid.String(),
	)

	var (
		payment *billing.Payment
		invoice *billing.Invoice
		changed bool
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		invoice, err = repos.InvoiceRepo().FindByIDForTenant(ctx, tenantID, req.InvoiceID)
		if err != nil {
			return err
		}

		payment, err = billing.NewPayment(tenantID, invoice.ID, req.AmountPaid, req.PaymentMethod, req.Notes, s.now())
		if err != nil {
			return err
		}
		if req.CreatedBy != nil {
			payment.SetCreatedBy(*req.CreatedBy)
		}
		if err := repos.PaymentRepo().Create(ctx, payment); err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}

		changed = invoice.MarkPaid(payment.PaymentDate)
		if changed {
			if err := repos.InvoiceRepo().Save(ctx, invoice); err != nil {
				return fmt.Errorf("failed to mark invoice paid: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.AddEvent(span, "payment_recorded",
		telemetry.SpanAttrPaymentID, payment.ID.String(),
		"invoice_changed", changed,
	)
	publishDomainEvents(ctx, s.eventPublisher, payment, invoice)

	return &RecordPaymentResult{
		Payment:        ToPaymentResponse(payment),
		Invoice:        ToInvoiceResponse(invoice),
		InvoiceChanged: changed,
	}, nil
}

// List returns a page of payments, newest first
func (s *PaymentService) List(ctx context.Context, tenantID uuid.UUID, filter PaymentListFilter) (shared.Paginated[PaymentResponse], error) {
	domainFilter := billing.PaymentFilter{
		Filter:    shared.Filter{Page: filter.Page, PageSize: filter.PageSize},
		InvoiceID: filter.InvoiceID,
	}

	payments, err := s.paymentRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return shared.Paginated[PaymentResponse]{}, fmt.Errorf("failed to list payments: %w", err)
	}
	total, err := s.paymentRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return shared.Paginated[PaymentResponse]{}, fmt.Errorf("failed to count payments: %w", err)
	}

	return shared.NewPaginated(ToPaymentResponses(payments), total, max(filter.Page, 1), domainFilter.Limit()), nil
}

// GetByID retrieves a payment by ID
func (s *PaymentService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*PaymentResponse, error) {
	p, err := s.paymentRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(p)
	return &resp, nil
}
