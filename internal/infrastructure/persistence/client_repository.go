package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/cablenet/billing/internal/domain/client"
	"github.com/cablenet/billing/internal/domain/shared"
	"github.com/cablenet/billing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormClientRepository implements ClientRepository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// FindByIDForTenant finds a client by ID within a tenant
func (r *GormClientRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*client.Client, error) {
	var model models.ClientModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("find client: %w", err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds a page of clients for a tenant
func (r *GormClientRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]client.Client, error) {
	var clientModels []models.ClientModel
	query := r.applySearch(r.db.WithContext(ctx).Model(&models.ClientModel{}).Where("tenant_id = ?", tenantID), filter)
	query = paginate(query, filter, clientSort)

	if err := query.Find(&clientModels).Error; err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return toDomainClients(clientModels), nil
}

// CountForTenant counts clients matching the filter
func (r *GormClientRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applySearch(r.db.WithContext(ctx).Model(&models.ClientModel{}).Where("tenant_id = ?", tenantID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count clients: %w", err)
	}
	return count, nil
}

// List returns every client of the tenant ordered by creation
func (r *GormClientRepository) List(ctx context.Context, tenantID uuid.UUID) ([]client.Client, error) {
	var clientModels []models.ClientModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&clientModels).Error; err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return toDomainClients(clientModels), nil
}

// ListTenantIDs returns the tenants that own at least one client
func (r *GormClientRepository) ListTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var tenantIDs []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.ClientModel{}).
		Distinct("tenant_id").
		Pluck("tenant_id", &tenantIDs).Error; err != nil {
		return nil, fmt.Errorf("list client tenants: %w", err)
	}
	return tenantIDs, nil
}

// Save creates or updates a client
func (r *GormClientRepository) Save(ctx context.Context, c *client.Client) error {
	model := models.ClientModelFromDomain(c)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("save client: %w", err)
	}
	return nil
}

// DeleteForTenant deletes a client within a tenant. Invoices and payments
// are removed by the ON DELETE CASCADE foreign keys.
func (r *GormClientRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ClientModel{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return fmt.Errorf("delete client: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormClientRepository) applySearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("full_name ILIKE ? OR document ILIKE ? OR email ILIKE ?",
			searchPattern, searchPattern, searchPattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "plan_type":
			query = query.Where("plan_type = ?", value)
		case "client_type":
			query = query.Where("client_type = ?", value)
		}
	}
	return query
}

func toDomainClients(clientModels []models.ClientModel) []client.Client {
	clients := make([]client.Client, len(clientModels))
	for i := range clientModels {
		clients[i] = *clientModels[i].ToDomain()
	}
	return clients
}

// Ensure GormClientRepository implements ClientRepository
var _ client.ClientRepository = (*GormClientRepository)(nil)
