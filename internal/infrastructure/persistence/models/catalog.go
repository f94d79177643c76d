package models

import (
	"github.com/cablenet/billing/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ServiceOfferingModel is the persistence model for catalog services.
type ServiceOfferingModel struct {
	TenantAggregateModel
	Name        string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_service_name"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (ServiceOfferingModel) TableName() string {
	return "services"
}

// ToDomain converts the persistence model to a domain ServiceOffering.
func (m *ServiceOfferingModel) ToDomain() *catalog.ServiceOffering {
	s := &catalog.ServiceOffering{
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
	}
	m.PopulateTenantAggregateRoot(&s.TenantAggregateRoot)
	return s
}

// FromDomain populates the persistence model from a domain ServiceOffering.
func (m *ServiceOfferingModel) FromDomain(s *catalog.ServiceOffering) {
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	m.Name = s.Name
	m.Description = s.Description
	m.Price = s.Price
}

// ServiceOfferingModelFromDomain creates a new persistence model from a domain ServiceOffering.
func ServiceOfferingModelFromDomain(s *catalog.ServiceOffering) *ServiceOfferingModel {
	m := &ServiceOfferingModel{}
	m.FromDomain(s)
	return m
}
