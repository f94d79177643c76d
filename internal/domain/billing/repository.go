package billing

import (
	"context"

	"github.com/cablenet/billing/internal/domain/shared"
	"github.com/google/uuid"
)

// InvoiceFilter narrows invoice listings.
type InvoiceFilter struct {
	shared.Filter
	ClientID *uuid.UUID
	Status   *InvoiceStatus
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByIDForTenant finds an invoice by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)

	// FindAllForTenant finds a page of invoices ordered by issue date, newest first
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) ([]Invoice, error)

	// CountForTenant counts invoices matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) (int64, error)

	// FindByClient returns all invoices of a client, newest issue date first
	FindByClient(ctx context.Context, tenantID, clientID uuid.UUID) ([]Invoice, error)

	// FindByClientAndPeriod returns the client's invoice issued inside the period, or nil.
	// The lookup is a date-range predicate on the issue date.
	FindByClientAndPeriod(ctx context.Context, tenantID, clientID uuid.UUID, period BillingPeriod) (*Invoice, error)

	// PendingSummary returns the pending total and latest due date per client.
	// Clients without pending invoices are absent from the map.
	PendingSummary(ctx context.Context, tenantID uuid.UUID, clientIDs []uuid.UUID) (map[uuid.UUID]PendingSummary, error)

	// Create inserts a new invoice. A second invoice for the same client and
	// period fails with ErrDuplicatePeriodInvoice.
	Create(ctx context.Context, inv *Invoice) error

	// CreateIfAbsent inserts the invoice unless one already exists for the
	// client and period. It reports whether a row was written.
	CreateIfAbsent(ctx context.Context, inv *Invoice) (bool, error)

	// Save updates an existing invoice with an optimistic version check
	Save(ctx context.Context, inv *Invoice) error

	// DeleteForTenant deletes an invoice and, through the foreign key, its payments
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	shared.Filter
	InvoiceID *uuid.UUID
}

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	// FindByIDForTenant finds a payment by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)

	// FindAllForTenant finds a page of payments ordered by payment date, newest first
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter PaymentFilter) ([]Payment, error)

	// CountForTenant counts payments matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter PaymentFilter) (int64, error)

	// Create inserts a payment
	Create(ctx context.Context, p *Payment) error
}

// ErrDuplicatePeriodInvoice is returned when a client already has an invoice for the month.
var ErrDuplicatePeriodInvoice = shared.NewDomainError("ALREADY_EXISTS", "Client already has an invoice for this month")
