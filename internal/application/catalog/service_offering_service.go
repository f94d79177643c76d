package catalog

import (
	"context"
	"strings"

	"github.com/cablenet/billing/internal/domain/catalog"
	"github.com/cablenet/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ErrDuplicateServiceName is returned when the tenant already lists a service with the name
var ErrDuplicateServiceName = shared.NewDomainError("ALREADY_EXISTS", "Service with this name already exists")

// ServiceOfferingService handles the tenant's service catalog
type ServiceOfferingService struct {
	repo catalog.ServiceOfferingRepository
}

// NewServiceOfferingService creates a new ServiceOfferingService
func NewServiceOfferingService(repo catalog.ServiceOfferingRepository) *ServiceOfferingService {
	return &ServiceOfferingService{repo: repo}
}

// Create adds a service to the catalog
func (s *ServiceOfferingService) Create(ctx context.Context, tenantID uuid.UUID, req ServiceRequest) (*ServiceResponse, error) {
	exists, err := s.repo.ExistsByName(ctx, tenantID, strings.TrimSpace(req.Name))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateServiceName
	}

	offering, err := catalog.NewServiceOffering(tenantID, req.Name, req.Description, req.Price)
	if err != nil {
		return nil, err
	}
	if req.CreatedBy != nil {
		offering.SetCreatedBy(*req.CreatedBy)
	}

	if err := s.repo.Save(ctx, offering); err != nil {
		return nil, err
	}
	resp := ToServiceResponse(offering)
	return &resp, nil
}

// GetByID retrieves a catalog entry
func (s *ServiceOfferingService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*ServiceResponse, error) {
	offering, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToServiceResponse(offering)
	return &resp, nil
}

// List returns a page of the catalog ordered by name
func (s *ServiceOfferingService) List(ctx context.Context, tenantID uuid.UUID, filter ServiceListFilter) (shared.Paginated[ServiceResponse], error) {
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Search:   filter.Search,
		OrderBy:  "name",
		OrderDir: "asc",
	}

	offerings, err := s.repo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return shared.Paginated[ServiceResponse]{}, err
	}
	total, err := s.repo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return shared.Paginated[ServiceResponse]{}, err
	}

	items := lo.Map(offerings, func(o catalog.ServiceOffering, _ int) ServiceResponse {
		return ToServiceResponse(&o)
	})
	return shared.NewPaginated(items, total, max(filter.Page, 1), domainFilter.Limit()), nil
}

// Update replaces name, description and price of a catalog entry
func (s *ServiceOfferingService) Update(ctx context.Context, tenantID, id uuid.UUID, req ServiceRequest) (*ServiceResponse, error) {
	offering, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name != offering.Name {
		exists, err := s.repo.ExistsByName(ctx, tenantID, name)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrDuplicateServiceName
		}
		if err := offering.Rename(name); err != nil {
			return nil, err
		}
	}
	if err := offering.SetPrice(req.Price); err != nil {
		return nil, err
	}
	offering.SetDescription(req.Description)

	if err := s.repo.Save(ctx, offering); err != nil {
		return nil, err
	}
	resp := ToServiceResponse(offering)
	return &resp, nil
}

// Delete removes a catalog entry
func (s *ServiceOfferingService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.repo.DeleteForTenant(ctx, tenantID, id)
}
