package client

import (
	"context"
	"fmt"
	"time"

	"github.com/cablenet/billing/internal/domain/billing"
	"github.com/cablenet/billing/internal/domain/client"
	"github.com/cablenet/billing/internal/domain/shared"
	"github.com/cablenet/billing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// ClientService handles client records and their derived billing state
type ClientService struct {
	clientRepo     client.ClientRepository
	invoiceRepo    billing.InvoiceRepository
	eventPublisher shared.EventPublisher
	now            func() time.Time
}

// NewClientService creates a new ClientService
func NewClientService(clientRepo client.ClientRepository, invoiceRepo billing.InvoiceRepository) *ClientService {
	return &ClientService{
		clientRepo:  clientRepo,
		invoiceRepo: invoiceRepo,
		now:         time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ClientService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// List returns a page of clients, each with its billing state
func (s *ClientService) List(ctx context.Context, tenantID uuid.UUID, filter ClientListFilter) (shared.Paginated[ClientResponse], error) {
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Search:   filter.Search,
	}

	clients, err := s.clientRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return shared.Paginated[ClientResponse]{}, fmt.Errorf("failed to list clients: %w", err)
	}
	total, err := s.clientRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return shared.Paginated[ClientResponse]{}, fmt.Errorf("failed to count clients: %w", err)
	}

	states, err := s.billingStates(ctx, tenantID, clients)
	if err != nil {
		return shared.Paginated[ClientResponse]{}, err
	}

	items := lo.Map(clients, func(c client.Client, _ int) ClientResponse {
		return ToClientResponse(&c, states[c.ID])
	})
	return shared.NewPaginated(items, total, max(filter.Page, 1), domainFilter.Limit()), nil
}

// GetByID retrieves a client with its billing state
func (s *ClientService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*ClientResponse, error) {
	c, err := s.clientRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, c)
}

// Create registers a new client
func (s *ClientService) Create(ctx context.Context, tenantID uuid.UUID, req ClientRequest, createdBy *uuid.UUID) (*ClientResponse, error) {
	c, err := client.NewClient(tenantID, req.details())
	if err != nil {
		return nil, err
	}
	if createdBy != nil {
		c.SetCreatedBy(*createdBy)
	}
	if err := s.clientRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	s.publish(ctx, c)
	// A new client has no invoices yet.
	resp := ToClientResponse(c, billing.NoDebt())
	return &resp, nil
}

// Update replaces the client's fields
func (s *ClientService) Update(ctx context.Context, tenantID, id uuid.UUID, req ClientRequest) (*ClientResponse, error) {
	c, err := s.clientRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := c.Update(req.details()); err != nil {
		return nil, err
	}
	if err := s.clientRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	s.publish(ctx, c)
	return s.respond(ctx, c)
}

// Delete removes a client with its invoices and payments
func (s *ClientService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.clientRepo.DeleteForTenant(ctx, tenantID, id)
}

// DebtSnapshot sums the pending debt of the tenant and counts clients whose
// latest due date has passed.
func (s *ClientService) DebtSnapshot(ctx context.Context, tenantID uuid.UUID) (telemetry.DebtSnapshot, error) {
	clients, err := s.clientRepo.List(ctx, tenantID)
	if err != nil {
		return telemetry.DebtSnapshot{}, fmt.Errorf("failed to load clients: %w", err)
	}
	states, err := s.billingStates(ctx, tenantID, clients)
	if err != nil {
		return telemetry.DebtSnapshot{}, err
	}

	snapshot := telemetry.DebtSnapshot{PendingDebt: decimal.Zero}
	for _, st := range states {
		snapshot.PendingDebt = snapshot.PendingDebt.Add(st.Deuda)
		if !st.Activo {
			snapshot.OverdueClients++
		}
	}
	return snapshot, nil
}

func (s *ClientService) respond(ctx context.Context, c *client.Client) (*ClientResponse, error) {
	states, err := s.billingStates(ctx, c.TenantID, []client.Client{*c})
	if err != nil {
		return nil, err
	}
	resp := ToClientResponse(c, states[c.ID])
	return &resp, nil
}

// billingStates derives the state of every given client from one aggregate query.
func (s *ClientService) billingStates(ctx context.Context, tenantID uuid.UUID, clients []client.Client) (map[uuid.UUID]billing.BillingState, error) {
	states := make(map[uuid.UUID]billing.BillingState, len(clients))
	if len(clients) == 0 {
		return states, nil
	}

	ids := lo.Map(clients, func(c client.Client, _ int) uuid.UUID { return c.ID })
	summaries, err := s.invoiceRepo.PendingSummary(ctx, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to compute billing state: %w", err)
	}

	today := s.now()
	for _, id := range ids {
		summary, ok := summaries[id]
		if !ok {
			states[id] = billing.NoDebt()
			continue
		}
		states[id] = billing.StateFromSummary(summary, today)
	}
	return states, nil
}

func (s *ClientService) publish(ctx context.Context, c *client.Client) {
	events := c.GetDomainEvents()
	c.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}
