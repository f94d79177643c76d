package persistence

import (
	"context"
	"testing"

	"github.com/cablenet/billing/internal/domain/billing"
	"github.com/cablenet/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormPaymentRepository(t *testing.T) {
	db := setupSQLiteDB(t)
	invoiceRepo := NewGormInvoiceRepository(db)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	c := seedClient(t, db, tenantID, "Internet")

	inv, err := billing.NewInvoice(tenantID, c.ID, decimal.NewFromInt(60), day(2024, 3, 1), nil)
	require.NoError(t, err)
	require.NoError(t, invoiceRepo.Create(ctx, inv))

	first, err := billing.NewPayment(tenantID, inv.ID, decimal.NewFromInt(30), "", "primer abono", day(2024, 3, 2))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))

	second, err := billing.NewPayment(tenantID, inv.ID, decimal.NewFromInt(30), "Yape", "", day(2024, 3, 9))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, second))

	t.Run("finds by id", func(t *testing.T) {
		found, err := repo.FindByIDForTenant(ctx, tenantID, first.ID)
		require.NoError(t, err)
		assert.Equal(t, billing.DefaultPaymentMethod, found.PaymentMethod)
		assert.Equal(t, "primer abono", found.Notes)
		assert.True(t, found.AmountPaid.Equal(decimal.NewFromInt(30)))

		_, err = repo.FindByIDForTenant(ctx, uuid.New(), first.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("lists newest first filtered by invoice", func(t *testing.T) {
		filter := billing.PaymentFilter{Filter: shared.Filter{Page: 1, PageSize: 10}, InvoiceID: &inv.ID}
		payments, err := repo.FindAllForTenant(ctx, tenantID, filter)
		require.NoError(t, err)
		require.Len(t, payments, 2)
		assert.Equal(t, second.ID, payments[0].ID)

		count, err := repo.CountForTenant(ctx, tenantID, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		other := uuid.New()
		count, err = repo.CountForTenant(ctx, tenantID, billing.PaymentFilter{InvoiceID: &other})
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}
