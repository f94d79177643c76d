package client

import (
	"time"

	"github.com/cablenet/billing/internal/domain/billing"
	"github.com/cablenet/billing/internal/domain/client"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClientRequest carries every mutable client field; updates replace them all
type ClientRequest struct {
	FullName       string `json:"full_name" binding:"required,max=100"`
	Document       string `json:"document" binding:"max=20"`
	Email          string `json:"email" binding:"omitempty,email,max=100"`
	PhoneNumber    string `json:"phone_number" binding:"max=20"`
	ServiceAddress string `json:"service_address"`
	BillingAddress string `json:"billing_address"`
	ClientType     string `json:"client_type" binding:"max=50"`
	PlanType       string `json:"plan_type" binding:"omitempty,plan_name"`
}

func (r ClientRequest) details() client.Details {
	return client.Details{
		FullName:       r.FullName,
		Document:       r.Document,
		Email:          r.Email,
		PhoneNumber:    r.PhoneNumber,
		ServiceAddress: r.ServiceAddress,
		BillingAddress: r.BillingAddress,
		ClientType:     r.ClientType,
		PlanType:       r.PlanType,
	}
}

// ClientListFilter represents filter options for client list
type ClientListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ClientResponse is a client merged with its derived billing state
type ClientResponse struct {
	ID             uuid.UUID       `json:"id"`
	FullName       string          `json:"full_name"`
	Document       string          `json:"document"`
	Email          string          `json:"email"`
	PhoneNumber    string          `json:"phone_number"`
	ServiceAddress string          `json:"service_address"`
	BillingAddress string          `json:"billing_address"`
	ClientType     string          `json:"client_type"`
	PlanType       string          `json:"plan_type"`
	PlanTier       string          `json:"plan_tier,omitempty"`
	PlanPrice      decimal.Decimal `json:"plan_price"`
	Deuda          decimal.Decimal `json:"deuda"`
	Vencimiento    *string         `json:"vencimiento"`
	Activo         bool            `json:"activo"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ToClientResponse merges a client with its billing state
func ToClientResponse(c *client.Client, state billing.BillingState) ClientResponse {
	resp := ClientResponse{
		ID:             c.ID,
		FullName:       c.FullName,
		Document:       c.Document,
		Email:          c.Email,
		PhoneNumber:    c.PhoneNumber,
		ServiceAddress: c.ServiceAddress,
		BillingAddress: c.BillingAddress,
		ClientType:     c.ClientType,
		PlanType:       c.PlanType,
		Deuda:          state.Deuda,
		Activo:         state.Activo,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
	if c.HasPlan() {
		resp.PlanTier = string(billing.TierForPlan(c.PlanType))
		resp.PlanPrice = billing.PriceForPlan(c.PlanType)
	}
	if state.Vencimiento != nil {
		v := state.Vencimiento.Format("2006-01-02")
		resp.Vencimiento = &v
	}
	return resp
}
