package persistence

import (
	"testing"

	"github.com/cablenet/billing/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupSQLiteDB creates an in-memory SQLite database with the billing schema
func setupSQLiteDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	// every pooled connection to ":memory:" would get its own empty database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.ClientModel{},
		&models.InvoiceModel{},
		&models.PaymentModel{},
		&models.ServiceOfferingModel{},
		&models.UserModel{},
	)
	require.NoError(t, err)

	return db
}
