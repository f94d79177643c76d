package billing

import (
	"time"

	"github.com/cablenet/billing/internal/domain/billing"
	"github.com/cablenet/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// CreateInvoiceRequest represents a request to issue an invoice by hand
type CreateInvoiceRequest struct {
	ClientID  uuid.UUID       `json:"client_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
	IssueDate string          `json:"issue_date" binding:"omitempty,datetime=2006-01-02"`
	DueDate   string          `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
	CreatedBy *uuid.UUID      `json:"-"`
}

// UpdateInvoiceRequest represents a partial update of an invoice.
// An empty due_date string clears the due date.
type UpdateInvoiceRequest struct {
	Amount  *decimal.Decimal `json:"amount"`
	DueDate *string          `json:"due_date"`
	Status  *string          `json:"status" binding:"omitempty,oneof=pending paid"`
}

// GenerateInvoicesRequest triggers the monthly generator. AsOf defaults to today.
type GenerateInvoicesRequest struct {
	AsOf string `json:"as_of" binding:"omitempty,datetime=2006-01-02"`
}

// InvoiceListFilter represents filter options for invoice list
type InvoiceListFilter struct {
	ClientID *uuid.UUID
	Status   string
	Page     int
	PageSize int
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID        uuid.UUID       `json:"id"`
	TenantID  uuid.UUID       `json:"tenant_id"`
	ClientID  uuid.UUID       `json:"client_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	IssueDate string          `json:"issue_date"`
	DueDate   *string         `json:"due_date"`
	Period    string          `json:"period"`
	Source    string          `json:"source"`
	PaidAt    *time.Time      `json:"paid_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Version   int             `json:"version"`
}

// ToInvoiceResponse converts a domain Invoice to InvoiceResponse
func ToInvoiceResponse(inv *billing.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:        inv.ID,
		TenantID:  inv.TenantID,
		ClientID:  inv.ClientID,
		Amount:    inv.Amount,
		Status:    inv.Status.String(),
		IssueDate: inv.IssueDate.Format(DateLayout),
		DueDate:   formatDate(inv.DueDate),
		Period:    inv.Period.String(),
		Source:    string(inv.Source),
		PaidAt:    inv.PaidAt,
		CreatedAt: inv.CreatedAt,
		UpdatedAt: inv.UpdatedAt,
		Version:   inv.Version,
	}
}

// ToInvoiceResponses converts a slice of domain Invoices
func ToInvoiceResponses(invoices []billing.Invoice) []InvoiceResponse {
	responses := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = ToInvoiceResponse(&invoices[i])
	}
	return responses
}

// CreatePaymentRequest represents a payment received against an invoice
type CreatePaymentRequest struct {
	InvoiceID     uuid.UUID       `json:"invoice_id" binding:"required"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	PaymentMethod string          `json:"payment_method" binding:"omitempty,payment_method"`
	Notes         string          `json:"notes" binding:"max=1000"`
	CreatedBy     *uuid.UUID      `json:"-"`
}

// PaymentListFilter represents filter options for payment list
type PaymentListFilter struct {
	InvoiceID *uuid.UUID
	Page      int
	PageSize  int
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	PaymentDate   time.Time       `json:"payment_date"`
	PaymentMethod string          `json:"payment_method"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToPaymentResponse converts a domain Payment to PaymentResponse
func ToPaymentResponse(p *billing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		InvoiceID:     p.InvoiceID,
		AmountPaid:    p.AmountPaid,
		PaymentDate:   p.PaymentDate,
		PaymentMethod: p.PaymentMethod,
		Notes:         p.Notes,
		CreatedAt:     p.CreatedAt,
	}
}

// ToPaymentResponses converts a slice of domain Payments
func ToPaymentResponses(payments []billing.Payment) []PaymentResponse {
	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = ToPaymentResponse(&payments[i])
	}
	return responses
}

// RecordPaymentResult reports the stored payment and the invoice after it
type RecordPaymentResult struct {
	Payment        PaymentResponse `json:"payment"`
	Invoice        InvoiceResponse `json:"invoice"`
	InvoiceChanged bool            `json:"invoice_changed"`
}

// SkippedClient names a client the generator did not invoice
type SkippedClient struct {
	ClientID uuid.UUID `json:"client_id"`
	Reason   string    `json:"reason"`
}

// Skip reasons reported by the generator
const (
	SkipReasonNoPlan          = "no_plan"
	SkipReasonAlreadyInvoiced = "already_invoiced"
	SkipReasonInvalid         = "invalid"
)

// GenerationResult summarizes one generator run
type GenerationResult struct {
	TenantID uuid.UUID       `json:"tenant_id"`
	Period   string          `json:"period"`
	AsOf     string          `json:"as_of"`
	Created  int             `json:"created"`
	Skipped  []SkippedClient `json:"skipped"`
	Invoices []uuid.UUID     `json:"invoice_ids"`
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}

// ParseDate parses a wire date. An empty string yields nil.
func ParseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_DATE", "Dates must use the YYYY-MM-DD format")
	}
	return &t, nil
}
