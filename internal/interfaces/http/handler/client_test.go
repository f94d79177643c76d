package handler

import (
	"net/http"
	"testing"

	appbilling "github.com/cablenet/billing/internal/application/billing"
	appclient "github.com/cablenet/billing/internal/application/client"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientHandler_Create(t *testing.T) {
	env := newTestEnv(t)
	r := env.router()

	created := env.createClient(t, r, "Rosa Quispe", "Internet 50MB")

	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "Rosa Quispe", created.FullName)
	assert.True(t, created.PlanPrice.Equal(decimal.NewFromInt(60)))
	assert.True(t, created.Deuda.IsZero())
	assert.Nil(t, created.Vencimiento)
	assert.True(t, created.Activo)
}

func TestClientHandler_Create_Validation(t *testing.T) {
	env := newTestEnv(t)
	r := env.router()

	tests := []struct {
		name string
		body map[string]any
		code string
	}{
		{"missing name", map[string]any{"phone_number": "123"}, "ERR_VALIDATION"},
		{"bad email", map[string]any{"full_name": "Luis", "email": "not-an-email"}, "ERR_VALIDATION"},
		{"blank plan", map[string]any{"full_name": "Luis", "plan_type": "   "}, "ERR_VALIDATION"},
		{"bad phone", map[string]any{"full_name": "Luis", "phone_number": "call me"}, "ERR_INVALID_PHONE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/v1/clients", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestClientHandler_Create_MalformedJSON(t *testing.T) {
	env := newTestEnv(t)
	r := env.router()

	w := doJSON(t, r, http.MethodPost, "/api/v1/clients", "not an object")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ERR_INVALID_JSON", errorCode(t, w))
}

func TestClientHandler_GetByID(t *testing.T) {
	env := newTestEnv(t)
	r := env.router()
	created := env.createClient(t, r, "Rosa Quispe", "TV + Internet")

	w := doJSON(t, r, http.MethodGet, "/api/v1/clients/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got appclient.ClientResponse
	decodeData(t, w, &got)
	assert.True(t, got.PlanPrice.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "tv_internet", got.PlanTier)

	w = doJSON(t, r, http.MethodGet, "/api/v1/clients/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ERR_NOT_FOUND", errorCode(t, w))

	w = doJSON(t, r, http.MethodGet, "/api/v1/clients/42", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClientHandler_TenantIsolation(t *testing.T) {
	env := newTestEnv(t)
	created := env.createClient(t, env.router(), "Rosa Quispe", "Internet")

	other := env.routerFor(uuid.New())
	w := doJSON(t, other, http.MethodGet, "/api/v1/clients/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, other, http.MethodGet, "/api/v1/clients", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var items []appclient.ClientResponse
	decodeData(t, w, &items)
	assert.Empty(t, items)
}

func TestClientHandler_List(t *testing.T) {
	env := newTestEnv(t)
	r := env.router()
	env.createClient(t, r, "Rosa Quispe", "Internet")
	env.createClient(t, r, "Mario Paredes", "")
	env.createClient(t, r, "Lucia Rojas", "TV + Internet")

	w := doJSON(t, r, http.MethodGet, "/api/v1/clients?page=1&page_size=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(3), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.TotalPages)

	var items []appclient.ClientResponse
	decodeData(t, w, &items)
	assert.Len(t, items, 2)

	w = doJSON(t, r, http.MethodGet, "/api/v1/clients?page_size=500", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClientHandler_Update(t *testing.T) {
	env := newTestEnv(t)
	r := env.router()
	created := env.createClient(t, r, "Rosa Quispe", "Internet")

	w := doJSON(t, r, http.MethodPut, "/api/v1/clients/"+created.ID.String(), map[string]any{
		"full_name": "Rosa Quispe Mamani",
		"plan_type": "TV Cable",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated appclient.ClientResponse
	decodeData(t, w, &updated)
	assert.Equal(t, "Rosa Quispe Mamani", updated.FullName)
	assert.Equal(t, "TV Cable", updated.PlanType)
	assert.True(t, updated.PlanPrice.Equal(decimal.NewFromInt(40)))
}

func TestClientHandler_BillingStateAndInvoices(t *testing.T) {
	env := newTestEnv(t)
	r := env.router()
	created := env.createClient(t, r, "Rosa Quispe", "Internet")
	env.createInvoice(t, r, created.ID, "60", "2024-01-10")

	w := doJSON(t, r, http.MethodGet, "/api/v1/clients/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got appclient.ClientResponse
	decodeData(t, w, &got)
	assert.True(t, got.Deuda.Equal(decimal.NewFromInt(60)))
	require.NotNil(t, got.Vencimiento)
	assert.Equal(t, "2024-01-10", *got.Vencimiento)
	assert.False(t, got.Activo)

	w = doJSON(t, r, http.MethodGet, "/api/v1/clients", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var listed []appclient.ClientResponse
	decodeData(t, w, &listed)
	require.Len(t, listed, 1)
	assert.True(t, listed[0].Deuda.Equal(decimal.NewFromInt(60)))
	require.NotNil(t, listed[0].Vencimiento)
	assert.Equal(t, "2024-01-10", *listed[0].Vencimiento)
	assert.False(t, listed[0].Activo)

	w = doJSON(t, r, http.MethodGet, "/api/v1/clients/"+created.ID.String()+"/invoices", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var invoices []appbilling.InvoiceResponse
	decodeData(t, w, &invoices)
	require.Len(t, invoices, 1)
	assert.Equal(t, "pending", invoices[0].Status)

	w = doJSON(t, r, http.MethodGet, "/api/v1/clients/"+uuid.NewString()+"/invoices", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClientHandler_DeleteCascades(t *testing.T) {
	env := newTestEnv(t)
	r := env.router()
	created := env.createClient(t, r, "Rosa Quispe", "Internet")
	inv := env.createInvoice(t, r, created.ID, "60", "2024-01-10")

	w := doJSON(t, r, http.MethodDelete, "/api/v1/clients/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/clients/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doJSON(t, r, http.MethodGet, "/api/v1/invoices/"+inv.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/v1/clients/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
