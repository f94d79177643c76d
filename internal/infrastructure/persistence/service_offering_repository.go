package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/cablenet/billing/internal/domain/catalog"
	"github.com/cablenet/billing/internal/domain/shared"
	"github.com/cablenet/billing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormServiceOfferingRepository implements ServiceOfferingRepository using GORM
type GormServiceOfferingRepository struct {
	db *gorm.DB
}

// NewGormServiceOfferingRepository creates a new GormServiceOfferingRepository
func NewGormServiceOfferingRepository(db *gorm.DB) *GormServiceOfferingRepository {
	return &GormServiceOfferingRepository{db: db}
}

// FindByIDForTenant finds a service by ID within a tenant
func (r *GormServiceOfferingRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.ServiceOffering, error) {
	var model models.ServiceOfferingModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("find service: %w", err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds a page of services ordered by name
func (r *GormServiceOfferingRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.ServiceOffering, error) {
	var serviceModels []models.ServiceOfferingModel
	query := r.applySearch(r.db.WithContext(ctx).Model(&models.ServiceOfferingModel{}).Where("tenant_id = ?", tenantID), filter)
	query = paginate(query, filter, serviceSort)

	if err := query.Find(&serviceModels).Error; err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}

	services := make([]catalog.ServiceOffering, len(serviceModels))
	for i := range serviceModels {
		services[i] = *serviceModels[i].ToDomain()
	}
	return services, nil
}

// CountForTenant counts services matching the filter
func (r *GormServiceOfferingRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applySearch(r.db.WithContext(ctx).Model(&models.ServiceOfferingModel{}).Where("tenant_id = ?", tenantID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count services: %w", err)
	}
	return count, nil
}

// ExistsByName checks if a service with the given name exists in the tenant
func (r *GormServiceOfferingRepository) ExistsByName(ctx context.Context, tenantID uuid.UUID, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ServiceOfferingModel{}).
		Where("tenant_id = ? AND name = ?", tenantID, name).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check service name: %w", err)
	}
	return count > 0, nil
}

// Save creates or updates a service
func (r *GormServiceOfferingRepository) Save(ctx context.Context, s *catalog.ServiceOffering) error {
	model := models.ServiceOfferingModelFromDomain(s)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError("ALREADY_EXISTS", "A service with this name already exists")
		}
		return fmt.Errorf("save service: %w", err)
	}
	return nil
}

// DeleteForTenant deletes a service within a tenant
func (r *GormServiceOfferingRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ServiceOfferingModel{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return fmt.Errorf("delete service: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormServiceOfferingRepository) applySearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}
	return query
}

// Ensure GormServiceOfferingRepository implements ServiceOfferingRepository
var _ catalog.ServiceOfferingRepository = (*GormServiceOfferingRepository)(nil)
