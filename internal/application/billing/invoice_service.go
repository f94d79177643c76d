package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/cablenet/billing/internal/domain/billing"
	"github.com/cablenet/billing/internal/domain/client"
	"github.com/cablenet/billing/internal/domain/shared"
	"github.com/cablenet/billing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

// InvoiceService handles invoice reads and the manual invoice lifecycle
type InvoiceService struct {
	invoiceRepo    billing.InvoiceRepository
	clientRepo     client.ClientRepository
	eventPublisher shared.EventPublisher
	now            func() time.Time
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo billing.InvoiceRepository,
	clientRepo client.ClientRepository,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		now:         time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *InvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// List returns a page of invoices, newest issue date first
func (s *InvoiceService) List(ctx context.Context, tenantID uuid.UUID, filter InvoiceListFilter) (shared.Paginated[InvoiceResponse], error) {
	domainFilter := billing.InvoiceFilter{
		Filter:   shared.Filter{Page: filter.Page, PageSize: filter.PageSize},
		ClientID: filter.ClientID,
	}
	if filter.Status != "" {
		status := billing.InvoiceStatus(filter.Status)
		domainFilter.Status = &status
	}

	invoices, err := s.invoiceRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return shared.Paginated[InvoiceResponse]{}, fmt.Errorf("failed to list invoices: %w", err)
	}
	total, err := s.invoiceRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return shared.Paginated[InvoiceResponse]{}, fmt.Errorf("failed to count invoices: %w", err)
	}

	return shared.NewPaginated(ToInvoiceResponses(invoices), total, max(filter.Page, 1), domainFilter.Limit()), nil
}

// ListByClient returns every invoice of a client, newest first
func (s *InvoiceService) ListByClient(ctx context.Context, tenantID, clientID uuid.UUID) ([]InvoiceResponse, error) {
	if _, err := s.clientRepo.FindByIDForTenant(ctx, tenantID, clientID); err != nil {
		return nil, err
	}
	invoices, err := s.invoiceRepo.FindByClient(ctx, tenantID, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list client invoices: %w", err)
	}
	return ToInvoiceResponses(invoices), nil
}

// GetByID retrieves an invoice by ID
func (s *InvoiceService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// Create issues an invoice by hand. The issue date defaults to today; a
// second invoice for the same client and month is rejected.
func (s *InvoiceService) Create(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrClientID, req.ClientID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	issueDate := s.now()
	if parsed, err := ParseDate(req.IssueDate); err != nil {
		return nil, err
	} else if parsed != nil {
		issueDate = *parsed
	}
	dueDate, err := ParseDate(req.DueDate)
	if err != nil {
		return nil, err
	}

	if _, err := s.clientRepo.FindByIDForTenant(ctx, tenantID, req.ClientID); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	inv, err := billing.NewInvoice(tenantID, req.ClientID, req.Amount, issueDate, dueDate)
	if err != nil {
		return nil, err
	}
	if req.CreatedBy != nil {
		inv.SetCreatedBy(*req.CreatedBy)
	}

	if err := s.invoiceRepo.Create(ctx, inv); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrInvoiceID, inv.ID.String())

	publishDomainEvents(ctx, s.eventPublisher, inv)
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// Update revises the amount or due date of a pending invoice and applies a
// requested status change. Each change is stored as its own version.
func (s *InvoiceService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "update")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrInvoiceID, id.String())

	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Amount != nil || req.DueDate != nil {
		amount := inv.Amount
		if req.Amount != nil {
			amount = *req.Amount
		}
		due := inv.DueDate
		if req.DueDate != nil {
			if due, err = ParseDate(*req.DueDate); err != nil {
				return nil, err
			}
		}
		if err := inv.Revise(amount, due); err != nil {
			return nil, err
		}
		if err := s.invoiceRepo.Save(ctx, inv); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	if req.Status != nil {
		before := inv.Version
		if err := inv.TransitionTo(billing.InvoiceStatus(*req.Status), s.now()); err != nil {
			return nil, err
		}
		if inv.Version != before {
			if err := s.invoiceRepo.Save(ctx, inv); err != nil {
				telemetry.RecordError(span, err)
				return nil, err
			}
		}
	}

	publishDomainEvents(ctx, s.eventPublisher, inv)
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// MarkPaid moves an invoice to paid. Marking an already paid invoice returns
// it unchanged.
func (s *InvoiceService) MarkPaid(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "mark_paid")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrInvoiceID, id.String())

	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if inv.MarkPaid(s.now()) {
		if err := s.invoiceRepo.Save(ctx, inv); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		publishDomainEvents(ctx, s.eventPublisher, inv)
	} else {
		telemetry.AddEvent(span, "already_paid")
	}

	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// Delete removes an invoice together with its payments
func (s *InvoiceService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.invoiceRepo.DeleteForTenant(ctx, tenantID, id)
}
