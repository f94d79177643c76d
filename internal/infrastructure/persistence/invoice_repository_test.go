package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cablenet/billing/internal/domain/billing"
	"github.com/cablenet/billing/internal/domain/client"
	"github.com/cablenet/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedClient(t *testing.T, db *gorm.DB, tenantID uuid.UUID, plan string) *client.Client {
	c, err := client.NewClient(tenantID, client.Details{FullName: "Rosa Quispe", PlanType: plan})
	require.NoError(t, err)
	require.NoError(t, NewGormClientRepository(db).Save(context.Background(), c))
	return c
}

func TestGormInvoiceRepository_CreateAndFind(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	c := seedClient(t, db, tenantID, "Internet Basico")

	inv, err := billing.NewMonthlyInvoice(tenantID, c.ID, c.PlanType, day(2024, 3, 15), 10)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, inv))

	found, err := repo.FindByIDForTenant(ctx, tenantID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, found.ClientID)
	assert.True(t, found.Amount.Equal(decimal.NewFromInt(60)))
	assert.Equal(t, billing.InvoiceStatusPending, found.Status)
	assert.Equal(t, day(2024, 3, 15), found.IssueDate)
	require.NotNil(t, found.DueDate)
	assert.Equal(t, day(2024, 3, 25), *found.DueDate)
	assert.Equal(t, billing.BillingPeriod{Year: 2024, Month: time.March}, found.Period)
	assert.Equal(t, billing.InvoiceSourceGenerator, found.Source)

	_, err = repo.FindByIDForTenant(ctx, uuid.New(), inv.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormInvoiceRepository_Create_DuplicatePeriod(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	c := seedClient(t, db, tenantID, "Cable Basico")

	first, err := billing.NewInvoice(tenantID, c.ID, decimal.NewFromInt(40), day(2024, 3, 1), nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))

	second, err := billing.NewInvoice(tenantID, c.ID, decimal.NewFromInt(40), day(2024, 3, 28), nil)
	require.NoError(t, err)
	err = repo.Create(ctx, second)

	assert.ErrorIs(t, err, billing.ErrDuplicatePeriodInvoice)
}

func TestGormInvoiceRepository_CreateIfAbsent(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	c := seedClient(t, db, tenantID, "TV + Internet Premium")

	first, err := billing.NewMonthlyInvoice(tenantID, c.ID, c.PlanType, day(2024, 3, 15), 0)
	require.NoError(t, err)
	created, err := repo.CreateIfAbsent(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)

	rerun, err := billing.NewMonthlyInvoice(tenantID, c.ID, c.PlanType, day(2024, 3, 20), 0)
	require.NoError(t, err)
	created, err = repo.CreateIfAbsent(ctx, rerun)
	require.NoError(t, err)
	assert.False(t, created)

	nextMonth, err := billing.NewMonthlyInvoice(tenantID, c.ID, c.PlanType, day(2024, 4, 1), 0)
	require.NoError(t, err)
	created, err = repo.CreateIfAbsent(ctx, nextMonth)
	require.NoError(t, err)
	assert.True(t, created)

	invoices, err := repo.FindByClient(ctx, tenantID, c.ID)
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	assert.Equal(t, day(2024, 4, 1), invoices[0].IssueDate)
}

func TestGormInvoiceRepository_FindByClientAndPeriod(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	c := seedClient(t, db, tenantID, "Internet")

	inv, err := billing.NewInvoice(tenantID, c.ID, decimal.NewFromInt(60), day(2024, 3, 31), nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, inv))

	found, err := repo.FindByClientAndPeriod(ctx, tenantID, c.ID, billing.BillingPeriod{Year: 2024, Month: time.March})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, inv.ID, found.ID)

	found, err = repo.FindByClientAndPeriod(ctx, tenantID, c.ID, billing.BillingPeriod{Year: 2024, Month: time.April})
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestGormInvoiceRepository_FindByClientAndPeriod_MonthBoundaries(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	c := seedClient(t, db, tenantID, "Internet")

	first, err := billing.NewInvoice(tenantID, c.ID, decimal.NewFromInt(60), day(2024, 3, 1), nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))

	found, err := repo.FindByClientAndPeriod(ctx, tenantID, c.ID, billing.BillingPeriod{Year: 2024, Month: time.March})
	require.NoError(t, err)
	require.NotNil(t, found, "invoice issued on the 1st belongs to its month")
	assert.Equal(t, first.ID, found.ID)

	found, err = repo.FindByClientAndPeriod(ctx, tenantID, c.ID, billing.BillingPeriod{Year: 2024, Month: time.February})
	require.NoError(t, err)
	assert.Nil(t, found, "the 1st of March is outside February")
}

func TestGormInvoiceRepository_FindByClientAndPeriod_BindsDates(t *testing.T) {
	gormDB, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormInvoiceRepository(gormDB)
	tenantID := uuid.New()
	clientID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE tenant_id = \$1 AND client_id = \$2 AND issue_date >= \$3 AND issue_date < \$4`).
		WithArgs(tenantID, clientID, "2024-12-01", "2025-01-01", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	found, err := repo.FindByClientAndPeriod(context.Background(), tenantID, clientID, billing.BillingPeriod{Year: 2024, Month: time.December})

	require.NoError(t, err)
	assert.Nil(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormInvoiceRepository_PendingSummary_SQLite(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	owing := seedClient(t, db, tenantID, "Internet")
	settled := seedClient(t, db, tenantID, "TV + Internet")

	jan, err := billing.NewMonthlyInvoice(tenantID, owing.ID, owing.PlanType, day(2024, 1, 15), 0)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, jan))
	feb, err := billing.NewMonthlyInvoice(tenantID, owing.ID, owing.PlanType, day(2024, 2, 15), 0)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, feb))

	paid, err := billing.NewMonthlyInvoice(tenantID, settled.ID, settled.PlanType, day(2024, 2, 15), 0)
	require.NoError(t, err)
	paid.MarkPaid(day(2024, 2, 20))
	require.NoError(t, repo.Create(ctx, paid))

	summaries, err := repo.PendingSummary(ctx, tenantID, []uuid.UUID{owing.ID, settled.ID})

	require.NoError(t, err)
	require.Len(t, summaries, 1)
	summary := summaries[owing.ID]
	assert.True(t, summary.Total.Equal(decimal.NewFromInt(120)))
	require.NotNil(t, summary.MaxDueDate)
	assert.Equal(t, day(2024, 2, 15), *summary.MaxDueDate)
}

func TestGormInvoiceRepository_Save(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	c := seedClient(t, db, tenantID, "Internet")

	inv, err := billing.NewInvoice(tenantID, c.ID, decimal.NewFromInt(60), day(2024, 3, 1), nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, inv))

	t.Run("persists mark paid", func(t *testing.T) {
		require.True(t, inv.MarkPaid(day(2024, 3, 5)))
		require.NoError(t, repo.Save(ctx, inv))

		found, err := repo.FindByIDForTenant(ctx, tenantID, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, billing.InvoiceStatusPaid, found.Status)
		assert.NotNil(t, found.PaidAt)
		assert.Equal(t, 2, found.Version)
	})

	t.Run("rejects stale version", func(t *testing.T) {
		stale, err := repo.FindByIDForTenant(ctx, tenantID, inv.ID)
		require.NoError(t, err)
		stale.Version = 7

		err = repo.Save(ctx, stale)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

func TestGormInvoiceRepository_FindAllForTenant(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	a := seedClient(t, db, tenantID, "Internet")
	b := seedClient(t, db, tenantID, "Cable")

	for _, m := range []time.Month{time.January, time.February, time.March} {
		inv, err := billing.NewInvoice(tenantID, a.ID, decimal.NewFromInt(60), day(2024, m, 1), nil)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, inv))
	}
	paid, err := billing.NewInvoice(tenantID, b.ID, decimal.NewFromInt(40), day(2024, 3, 1), nil)
	require.NoError(t, err)
	paid.MarkPaid(day(2024, 3, 2))
	require.NoError(t, repo.Create(ctx, paid))

	filter := billing.InvoiceFilter{Filter: shared.Filter{Page: 1}, ClientID: &a.ID}
	filter.OrderBy = "issue_date"
	invoices, err := repo.FindAllForTenant(ctx, tenantID, filter)
	require.NoError(t, err)
	require.Len(t, invoices, 3)
	assert.Equal(t, time.March, invoices[0].IssueDate.Month())

	status := billing.InvoiceStatusPaid
	count, err := repo.CountForTenant(ctx, tenantID, billing.InvoiceFilter{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	page := billing.InvoiceFilter{Filter: shared.Filter{Page: 2, PageSize: 3}}
	invoices, err = repo.FindAllForTenant(ctx, tenantID, page)
	require.NoError(t, err)
	assert.Len(t, invoices, 1)
}

func TestGormInvoiceRepository_DeleteForTenant(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	c := seedClient(t, db, tenantID, "Internet")

	inv, err := billing.NewInvoice(tenantID, c.ID, decimal.NewFromInt(60), day(2024, 3, 1), nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, inv))

	assert.ErrorIs(t, repo.DeleteForTenant(ctx, uuid.New(), inv.ID), shared.ErrNotFound)
	require.NoError(t, repo.DeleteForTenant(ctx, tenantID, inv.ID))
	assert.ErrorIs(t, repo.DeleteForTenant(ctx, tenantID, inv.ID), shared.ErrNotFound)
}

func TestGormInvoiceRepository_PendingSummary(t *testing.T) {
	t.Run("aggregates pending debt per client", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormInvoiceRepository(gormDB)

		tenantID := uuid.New()
		clientA := uuid.New()
		clientB := uuid.New()
		due := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

		rows := sqlmock.NewRows([]string{"client_id", "total", "max_due_date"}).
			AddRow(clientA.String(), "160.00", due).
			AddRow(clientB.String(), "40.00", nil)

		mock.ExpectQuery(`SELECT client_id, COALESCE\(SUM\(amount\), 0\) AS total, MAX\(due_date\) AS max_due_date FROM "invoices" WHERE tenant_id = \$1 AND status = \$2 AND client_id IN \(\$3,\$4\) GROUP BY "client_id"`).
			WithArgs(tenantID, billing.InvoiceStatusPending, clientA, clientB).
			WillReturnRows(rows)

		summaries, err := repo.PendingSummary(context.Background(), tenantID, []uuid.UUID{clientA, clientB, clientA})

		require.NoError(t, err)
		require.Len(t, summaries, 2)
		assert.True(t, summaries[clientA].Total.Equal(decimal.NewFromInt(160)))
		require.NotNil(t, summaries[clientA].MaxDueDate)
		assert.Equal(t, due, *summaries[clientA].MaxDueDate)
		assert.Nil(t, summaries[clientB].MaxDueDate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("skips the query for no clients", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormInvoiceRepository(gormDB)

		summaries, err := repo.PendingSummary(context.Background(), uuid.New(), nil)

		require.NoError(t, err)
		assert.Empty(t, summaries)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
