package client

import (
	"context"

	"github.com/cablenet/billing/internal/domain/shared"
	"github.com/google/uuid"
)

// ClientRepository defines the interface for client persistence
type ClientRepository interface {
	// FindByIDForTenant finds a client by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Client, error)

	// FindAllForTenant finds a page of clients for a tenant.
	// Filter.Search matches full name, document or email.
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Client, error)

	// CountForTenant counts clients matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// List returns every client of the tenant, unpaginated, ordered by creation.
	List(ctx context.Context, tenantID uuid.UUID) ([]Client, error)

	// ListTenantIDs returns the tenants that own at least one client.
	ListTenantIDs(ctx context.Context) ([]uuid.UUID, error)

	// Save creates or updates a client
	Save(ctx context.Context, c *Client) error

	// DeleteForTenant deletes a client and, through the foreign keys, its invoices and payments
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}
