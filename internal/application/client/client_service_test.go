package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cablenet/billing/internal/domain/billing"
	"github.com/cablenet/billing/internal/domain/client"
	"github.com/cablenet/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type clientFixture struct {
	tenantID    uuid.UUID
	clientRepo  *MockClientRepository
	invoiceRepo *MockInvoiceRepository
	publisher   *recordingPublisher
	service     *ClientService
}

func newClientFixture(today time.Time) *clientFixture {
	f := &clientFixture{
		tenantID:    uuid.New(),
		clientRepo:  new(MockClientRepository),
		invoiceRepo: new(MockInvoiceRepository),
		publisher:   &recordingPublisher{},
	}
	f.service = NewClientService(f.clientRepo, f.invoiceRepo)
	f.service.SetEventPublisher(f.publisher)
	f.service.now = func() time.Time { return today }
	return f
}

func (f *clientFixture) newClient(t *testing.T, name, plan string) client.Client {
	t.Helper()
	c, err := client.NewClient(f.tenantID, client.Details{FullName: name, PlanType: plan})
	require.NoError(t, err)
	c.ClearDomainEvents()
	return *c
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestClientService_List_MergesBillingState(t *testing.T) {
	f := newClientFixture(time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC))
	overdue := f.newClient(t, "Ana", "Internet Basico")
	current := f.newClient(t, "Bruno", "TV + Internet")
	clean := f.newClient(t, "Carla", "")

	filter := shared.Filter{Page: 1, PageSize: 10, Search: "a"}
	f.clientRepo.On("FindAllForTenant", mock.Anything, f.tenantID, filter).Return([]client.Client{overdue, current, clean}, nil)
	f.clientRepo.On("CountForTenant", mock.Anything, f.tenantID, filter).Return(int64(3), nil)
	f.invoiceRepo.On("PendingSummary", mock.Anything, f.tenantID, []uuid.UUID{overdue.ID, current.ID, clean.ID}).
		Return(map[uuid.UUID]billing.PendingSummary{
			overdue.ID: {ClientID: overdue.ID, Total: decimal.NewFromInt(60), MaxDueDate: day(2024, time.February, 1)},
			current.ID: {ClientID: current.ID, Total: decimal.NewFromInt(100), MaxDueDate: day(2024, time.March, 1)},
		}, nil)

	page, err := f.service.List(context.Background(), f.tenantID, ClientListFilter{Search: "a", Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)

	assert.False(t, page.Items[0].Activo)
	assert.Equal(t, "2024-02-01", *page.Items[0].Vencimiento)
	assert.True(t, page.Items[0].Deuda.Equal(decimal.NewFromInt(60)))
	assert.True(t, page.Items[0].PlanPrice.Equal(decimal.NewFromInt(60)))

	assert.True(t, page.Items[1].Activo, "due today is not overdue")
	assert.True(t, page.Items[1].Deuda.Equal(decimal.NewFromInt(100)))

	assert.True(t, page.Items[2].Activo)
	assert.True(t, page.Items[2].Deuda.IsZero())
	assert.Nil(t, page.Items[2].Vencimiento)
	assert.True(t, page.Items[2].PlanPrice.IsZero())
}

func TestClientService_List_EmptySkipsSummary(t *testing.T) {
	f := newClientFixture(time.Now())
	f.clientRepo.On("FindAllForTenant", mock.Anything, f.tenantID, shared.Filter{}).Return([]client.Client{}, nil)
	f.clientRepo.On("CountForTenant", mock.Anything, f.tenantID, shared.Filter{}).Return(int64(0), nil)

	page, err := f.service.List(context.Background(), f.tenantID, ClientListFilter{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	f.invoiceRepo.AssertNotCalled(t, "PendingSummary", mock.Anything, mock.Anything, mock.Anything)
}

func TestClientService_GetByID(t *testing.T) {
	f := newClientFixture(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	c := f.newClient(t, "Ana", "Cable")
	f.clientRepo.On("FindByIDForTenant", mock.Anything, f.tenantID, c.ID).Return(&c, nil)
	f.invoiceRepo.On("PendingSummary", mock.Anything, f.tenantID, []uuid.UUID{c.ID}).
		Return(map[uuid.UUID]billing.PendingSummary{}, nil)

	resp, err := f.service.GetByID(context.Background(), f.tenantID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", resp.FullName)
	assert.True(t, resp.Activo)

	missing := uuid.New()
	f.clientRepo.On("FindByIDForTenant", mock.Anything, f.tenantID, missing).Return(nil, shared.ErrNotFound)
	_, err = f.service.GetByID(context.Background(), f.tenantID, missing)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestClientService_Create(t *testing.T) {
	f := newClientFixture(time.Now())
	userID := uuid.New()
	f.clientRepo.On("Save", mock.Anything, mock.AnythingOfType("*client.Client")).Return(nil)

	resp, err := f.service.Create(context.Background(), f.tenantID, ClientRequest{
		FullName: "  Ana Quispe ",
		Email:    "ana@example.com",
		PlanType: "Internet 50MB",
	}, &userID)
	require.NoError(t, err)

	assert.Equal(t, "Ana Quispe", resp.FullName)
	assert.True(t, resp.Activo)
	assert.True(t, resp.Deuda.IsZero())
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, client.EventTypeClientCreated, f.publisher.events[0].EventType())

	saved := f.clientRepo.Calls[0].Arguments.Get(1).(*client.Client)
	require.NotNil(t, saved.CreatedBy)
	assert.Equal(t, userID, *saved.CreatedBy)
}

func TestClientService_Create_Invalid(t *testing.T) {
	f := newClientFixture(time.Now())

	_, err := f.service.Create(context.Background(), f.tenantID, ClientRequest{FullName: "   "}, nil)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_NAME", domainErr.Code)
	f.clientRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestClientService_Update_PlanChangeRaisesEvent(t *testing.T) {
	f := newClientFixture(time.Now())
	c := f.newClient(t, "Ana", "Cable")
	f.clientRepo.On("FindByIDForTenant", mock.Anything, f.tenantID, c.ID).Return(&c, nil)
	f.clientRepo.On("Save", mock.Anything, &c).Return(nil)
	f.invoiceRepo.On("PendingSummary", mock.Anything, f.tenantID, []uuid.UUID{c.ID}).
		Return(map[uuid.UUID]billing.PendingSummary{}, nil)

	resp, err := f.service.Update(context.Background(), f.tenantID, c.ID, ClientRequest{FullName: "Ana", PlanType: "TV + Internet"})
	require.NoError(t, err)

	assert.Equal(t, "TV + Internet", resp.PlanType)
	assert.True(t, resp.PlanPrice.Equal(decimal.NewFromInt(100)))
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, client.EventTypeClientPlanChanged, f.publisher.events[0].EventType())
}

func TestClientService_Delete(t *testing.T) {
	f := newClientFixture(time.Now())
	id := uuid.New()
	f.clientRepo.On("DeleteForTenant", mock.Anything, f.tenantID, id).Return(nil)

	require.NoError(t, f.service.Delete(context.Background(), f.tenantID, id))
	f.clientRepo.AssertExpectations(t)
}

func TestClientService_DebtSnapshot(t *testing.T) {
	f := newClientFixture(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	a := f.newClient(t, "Ana", "Cable")
	b := f.newClient(t, "Bruno", "Internet")
	c := f.newClient(t, "Carla", "Internet")

	f.clientRepo.On("List", mock.Anything, f.tenantID).Return([]client.Client{a, b, c}, nil)
	f.invoiceRepo.On("PendingSummary", mock.Anything, f.tenantID, []uuid.UUID{a.ID, b.ID, c.ID}).
		Return(map[uuid.UUID]billing.PendingSummary{
			a.ID: {ClientID: a.ID, Total: decimal.NewFromInt(40), MaxDueDate: day(2024, time.February, 1)},
			b.ID: {ClientID: b.ID, Total: decimal.NewFromInt(60), MaxDueDate: day(2024, time.March, 10)},
		}, nil)

	snapshot, err := f.service.DebtSnapshot(context.Background(), f.tenantID)
	require.NoError(t, err)

	assert.True(t, snapshot.PendingDebt.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, int64(1), snapshot.OverdueClients)
}

func TestClientService_DebtSnapshot_SummaryFailure(t *testing.T) {
	f := newClientFixture(time.Now())
	a := f.newClient(t, "Ana", "Cable")
	f.clientRepo.On("List", mock.Anything, f.tenantID).Return([]client.Client{a}, nil)
	f.invoiceRepo.On("PendingSummary", mock.Anything, f.tenantID, mock.Anything).Return(nil, errors.New("timeout"))

	_, err := f.service.DebtSnapshot(context.Background(), f.tenantID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to compute billing state")
}
