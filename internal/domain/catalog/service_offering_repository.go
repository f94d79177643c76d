package catalog

import (
	"context"

	"github.com/cablenet/billing/internal/domain/shared"
	"github.com/google/uuid"
)

// ServiceOfferingRepository defines the interface for catalog persistence
type ServiceOfferingRepository interface {
	// FindByIDForTenant finds a service by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ServiceOffering, error)

	// FindAllForTenant finds a page of services ordered by name
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ServiceOffering, error)

	// CountForTenant counts services matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// ExistsByName checks if a service with the given name exists in the tenant
	ExistsByName(ctx context.Context, tenantID uuid.UUID, name string) (bool, error)

	// Save creates or updates a service
	Save(ctx context.Context, s *ServiceOffering) error

	// DeleteForTenant deletes a service within a tenant
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}
