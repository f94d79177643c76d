package billing

import (
	"strings"
	"time"

	"github.com/cablenet/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultPaymentMethod is used when a payment does not name its method (cash).
const DefaultPaymentMethod = "Efectivo"

// Payment is money received against exactly one invoice.
type Payment struct {
	shared.TenantAggregateRoot
	InvoiceID     uuid.UUID
	AmountPaid    decimal.Decimal
	PaymentDate   time.Time
	PaymentMethod string
	Notes         string
}

// NewPayment validates and creates a payment. An empty method falls back to DefaultPaymentMethod
// and a zero paidAt to the current time.
func NewPayment(tenantID, invoiceID uuid.UUID, amount decimal.Decimal, method, notes string, paidAt time.Time) (*Payment, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	method = strings.TrimSpace(method)
	if method == "" {
		method = DefaultPaymentMethod
	}
	if len(method) > 50 {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method cannot exceed 50 characters")
	}
	if len(notes) > 1000 {
		return nil, shared.NewDomainError("INVALID_NOTES", "Notes cannot exceed 1000 characters")
	}
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	p := &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceID:           invoiceID,
		AmountPaid:          amount.Round(2),
		PaymentDate:         paidAt,
		PaymentMethod:       method,
		Notes:               strings.TrimSpace(notes),
	}
	p.AddDomainEvent(NewPaymentRecordedEvent(p))
	return p, nil
}
