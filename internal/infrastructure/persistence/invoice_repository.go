package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cablenet/billing/internal/domain/billing"
	"github.com/cablenet/billing/internal/domain/shared"
	"github.com/cablenet/billing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint violations
const uniqueViolation = "23505"

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByIDForTenant finds an invoice by ID within a tenant
func (r *GormInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("find invoice: %w", err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds a page of invoices, newest issue date first by default
func (r *GormInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Where("tenant_id = ?", tenantID), filter)
	query = paginate(query, filter.Filter, invoiceSort)

	if err := query.Find(&invoiceModels).Error; err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return toDomainInvoices(invoiceModels), nil
}

// CountForTenant counts invoices matching the filter
func (r *GormInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.InvoiceFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Where("tenant_id = ?", tenantID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count invoices: %w", err)
	}
	return count, nil
}

// FindByClient returns all invoices of a client, newest issue date first
func (r *GormInvoiceRepository) FindByClient(ctx context.Context, tenantID, clientID uuid.UUID) ([]billing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND client_id = ?", tenantID, clientID).
		Order("issue_date DESC").
		Find(&invoiceModels).Error; err != nil {
		return nil, fmt.Errorf("list client invoices: %w", err)
	}
	return toDomainInvoices(invoiceModels), nil
}

// FindByClientAndPeriod returns the client's invoice issued inside the period, or nil.
// The bounds are bound as plain dates so the session time zone cannot shift them.
func (r *GormInvoiceRepository) FindByClientAndPeriod(ctx context.Context, tenantID, clientID uuid.UUID, period billing.BillingPeriod) (*billing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND client_id = ? AND issue_date >= ? AND issue_date < ?",
			tenantID, clientID, period.Start().Format(time.DateOnly), period.End().Format(time.DateOnly)).
		Limit(1).
		Find(&invoiceModels).Error; err != nil {
		return nil, fmt.Errorf("find invoice for period: %w", err)
	}
	if len(invoiceModels) == 0 {
		return nil, nil
	}
	return invoiceModels[0].ToDomain(), nil
}

// PendingSummary returns the pending total and latest due date per client
func (r *GormInvoiceRepository) PendingSummary(ctx context.Context, tenantID uuid.UUID, clientIDs []uuid.UUID) (map[uuid.UUID]billing.PendingSummary, error) {
	summaries := make(map[uuid.UUID]billing.PendingSummary, len(clientIDs))
	if len(clientIDs) == 0 {
		return summaries, nil
	}

	var rows []models.PendingSummaryRow
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Select("client_id, COALESCE(SUM(amount), 0) AS total, MAX(due_date) AS max_due_date").
		Where("tenant_id = ? AND status = ? AND client_id IN ?", tenantID, billing.InvoiceStatusPending, lo.Uniq(clientIDs)).
		Group("client_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("sum pending invoices: %w", err)
	}

	for _, row := range rows {
		summary := billing.PendingSummary{ClientID: row.ClientID, Total: row.Total}
		if maxDue := row.MaxDueDate.Ptr(); maxDue != nil {
			due := billing.DateOf(*maxDue)
			summary.MaxDueDate = &due
		}
		summaries[row.ClientID] = summary
	}
	return summaries, nil
}

// Create inserts a new invoice; a second invoice for the same client and month
// fails with ErrDuplicatePeriodInvoice.
func (r *GormInvoiceRepository) Create(ctx context.Context, inv *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(inv)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return billing.ErrDuplicatePeriodInvoice
		}
		return fmt.Errorf("create invoice: %w", err)
	}
	return nil
}

// CreateIfAbsent inserts the invoice with ON CONFLICT DO NOTHING against the
// client/period unique index and reports whether a row was written.
func (r *GormInvoiceRepository) CreateIfAbsent(ctx context.Context, inv *billing.Invoice) (bool, error) {
	model := models.InvoiceModelFromDomain(inv)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(model)
	if result.Error != nil {
		return false, fmt.Errorf("create invoice: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Save updates an existing invoice with an optimistic version check
func (r *GormInvoiceRepository) Save(ctx context.Context, inv *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(inv)
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", inv.TenantID, inv.ID, inv.Version-1).
		Select("amount", "status", "due_date", "paid_at", "version", "updated_at").
		Updates(model)
	if result.Error != nil {
		return fmt.Errorf("save invoice: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// DeleteForTenant deletes an invoice; its payments go with it through ON DELETE CASCADE
func (r *GormInvoiceRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.InvoiceModel{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return fmt.Errorf("delete invoice: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter billing.InvoiceFilter) *gorm.DB {
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}

func toDomainInvoices(invoiceModels []models.InvoiceModel) []billing.Invoice {
	invoices := make([]billing.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = *invoiceModels[i].ToDomain()
	}
	return invoices
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
