package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appbilling "github.com/cablenet/billing/internal/application/billing"
	appcatalog "github.com/cablenet/billing/internal/application/catalog"
	appclient "github.com/cablenet/billing/internal/application/client"
	appidentity "github.com/cablenet/billing/internal/application/identity"
	"github.com/cablenet/billing/internal/infrastructure/auth"
	"github.com/cablenet/billing/internal/infrastructure/config"
	"github.com/cablenet/billing/internal/infrastructure/persistence"
	"github.com/cablenet/billing/internal/infrastructure/persistence/models"
	"github.com/cablenet/billing/internal/infrastructure/scheduler"
	"github.com/cablenet/billing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// MockInvoiceGenerator is a mock implementation of InvoiceGenerator
type MockInvoiceGenerator struct {
	mock.Mock
}

func (m *MockInvoiceGenerator) GenerateMonthly(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*appbilling.GenerationResult, error) {
	args := m.Called(ctx, tenantID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appbilling.GenerationResult), args.Error(1)
}

// testEnv wires the real services over an in-memory SQLite database
type testEnv struct {
	db         *gorm.DB
	tenantID   uuid.UUID
	userID     uuid.UUID
	jwtService *auth.JWTService
	blacklist  *auth.InMemoryTokenBlacklist
	generator  *MockInvoiceGenerator
	runs       *scheduler.GenerationRunRepository

	clientService  *appclient.ClientService
	invoiceService *appbilling.InvoiceService
	paymentService *appbilling.PaymentService
	userService    *appidentity.UserService
	authService    *appidentity.AuthService
	catalogService *appcatalog.ServiceOfferingService
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.ClientModel{},
		&models.InvoiceModel{},
		&models.PaymentModel{},
		&models.ServiceOfferingModel{},
		&models.UserModel{},
		&scheduler.GenerationRun{},
	))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)

	clientRepo := persistence.NewGormClientRepository(db)
	invoiceRepo := persistence.NewGormInvoiceRepository(db)
	paymentRepo := persistence.NewGormPaymentRepository(db)
	userRepo := persistence.NewGormUserRepository(db)
	txScope := persistence.NewGormBillingTransactionScope(db)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "handler-test-secret-key-32-chars!",
		RefreshSecret:          "handler-test-refresh-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "billing-test",
		MaxRefreshCount:        5,
	})
	blacklist := auth.NewInMemoryTokenBlacklist()

	return &testEnv{
		db:         db,
		tenantID:   uuid.New(),
		userID:     uuid.New(),
		jwtService: jwtService,
		blacklist:  blacklist,
		generator:  new(MockInvoiceGenerator),
		runs:       scheduler.NewGenerationRunRepository(db),

		clientService:  appclient.NewClientService(clientRepo, invoiceRepo),
		invoiceService: appbilling.NewInvoiceService(invoiceRepo, clientRepo),
		paymentService: appbilling.NewPaymentService(txScope, paymentRepo),
		userService:    appidentity.NewUserService(userRepo, blacklist, uuid.MustParse(config.DefaultTenantID), time.Hour, zap.NewNop()),
		authService:    appidentity.NewAuthService(userRepo, jwtService, blacklist, zap.NewNop()),
		catalogService: appcatalog.NewServiceOfferingService(persistence.NewGormServiceOfferingRepository(db)),
	}
}

// authenticated stands in for the JWT middleware
func (e *testEnv) authenticated(tenantID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		setJWTContext(c, tenantID, e.userID)
		c.Next()
	}
}

// router mounts the billing handlers for the env's tenant
func (e *testEnv) router() *gin.Engine {
	return e.routerFor(e.tenantID)
}

func (e *testEnv) routerFor(tenantID uuid.UUID) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	api := r.Group("/api/v1", e.authenticated(tenantID))

	clients := NewClientHandler(e.clientService, e.invoiceService)
	api.POST("/clients", clients.Create)
	api.GET("/clients", clients.List)
	api.GET("/clients/:id", clients.GetByID)
	api.PUT("/clients/:id", clients.Update)
	api.DELETE("/clients/:id", clients.Delete)
	api.GET("/clients/:id/invoices", clients.ListInvoices)

	invoices := NewInvoiceHandler(e.invoiceService, e.generator, e.runs)
	api.GET("/invoices", invoices.List)
	api.POST("/invoices", invoices.Create)
	api.POST("/invoices/generate", invoices.Generate)
	api.GET("/invoices/generation-runs", invoices.GenerationRuns)
	api.GET("/invoices/:id", invoices.GetByID)
	api.PUT("/invoices/:id", invoices.Update)
	api.PUT("/invoices/:id/pay", invoices.MarkPaid)
	api.DELETE("/invoices/:id", invoices.Delete)

	payments := NewPaymentHandler(e.paymentService)
	api.POST("/payments", payments.Record)
	api.GET("/payments", payments.List)
	api.GET("/payments/:id", payments.GetByID)

	services := NewServiceOfferingHandler(e.catalogService)
	api.POST("/services", services.Create)
	api.GET("/services", services.List)
	api.GET("/services/:id", services.GetByID)
	api.PUT("/services/:id", services.Update)
	api.DELETE("/services/:id", services.Delete)

	users := NewUserHandler(e.userService)
	api.POST("/users", users.Create)
	api.GET("/users", users.List)
	api.DELETE("/users/:username", users.Delete)
	r.POST("/api/v1/users/register", users.Register)

	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// decodeData unmarshals the envelope's data field into out
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	require.True(t, envelope.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error, w.Body.String())
	return resp.Error.Code
}

func (e *testEnv) createClient(t *testing.T, r http.Handler, name, plan string) appclient.ClientResponse {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/v1/clients", map[string]any{
		"full_name":       name,
		"phone_number":    "987654321",
		"service_address": "Jr. Lima 123",
		"plan_type":       plan,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created appclient.ClientResponse
	decodeData(t, w, &created)
	return created
}

// createInvoice issues a manual invoice due on its issue date
func (e *testEnv) createInvoice(t *testing.T, r http.Handler, clientID uuid.UUID, amount, issueDate string) appbilling.InvoiceResponse {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/v1/invoices", map[string]any{
		"client_id":  clientID,
		"amount":     amount,
		"issue_date": issueDate,
		"due_date":   issueDate,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created appbilling.InvoiceResponse
	decodeData(t, w, &created)
	return created
}
