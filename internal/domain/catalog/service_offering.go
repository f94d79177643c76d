package catalog

import (
	"strings"
	"time"

	"github.com/cablenet/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ServiceOffering is an entry of the tenant's service catalog
// (for example "Instalacion" or "Cable + Internet 100Mbps").
// Names are unique per tenant.
type ServiceOffering struct {
	shared.TenantAggregateRoot
	Name        string
	Description string
	Price       decimal.Decimal
}

// NewServiceOffering creates a catalog entry
func NewServiceOffering(tenantID uuid.UUID, name, description string, price decimal.Decimal) (*ServiceOffering, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}

	s := &ServiceOffering{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Description:         strings.TrimSpace(description),
		Price:               price.Round(2),
	}
	return s, nil
}

// Rename changes the catalog name
func (s *ServiceOffering) Rename(name string) error {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return err
	}
	s.Name = name
	s.touch()
	return nil
}

// SetDescription replaces the description
func (s *ServiceOffering) SetDescription(description string) {
	s.Description = strings.TrimSpace(description)
	s.touch()
}

// SetPrice changes the list price
func (s *ServiceOffering) SetPrice(price decimal.Decimal) error {
	if err := validatePrice(price); err != nil {
		return err
	}
	s.Price = price.Round(2)
	s.touch()
	return nil
}

func (s *ServiceOffering) touch() {
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}

func validateName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Service name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Service name cannot exceed 100 characters")
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Service price cannot be negative")
	}
	return nil
}
