package billing

import (
	"time"

	"github.com/cablenet/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
)

// IsValid returns true if the status is a known invoice status
func (s InvoiceStatus) IsValid() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusPaid
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// InvoiceSource records how an invoice came to exist.
type InvoiceSource string

const (
	InvoiceSourceGenerator InvoiceSource = "generator"
	InvoiceSourceManual    InvoiceSource = "manual"
)

// Invoice is a billing obligation of one client for one calendar month.
type Invoice struct {
	shared.TenantAggregateRoot
	ClientID  uuid.UUID
	Amount    decimal.Decimal
	Status    InvoiceStatus
	IssueDate time.Time
	DueDate   *time.Time
	Period    BillingPeriod
	Source    InvoiceSource
	PaidAt    *time.Time
}

// NewInvoice creates a pending invoice. The billing period is derived from the issue date.
func NewInvoice(tenantID, clientID uuid.UUID, amount decimal.Decimal, issueDate time.Time, dueDate *time.Time) (*Invoice, error) {
	return newInvoice(tenantID, clientID, amount, issueDate, dueDate, InvoiceSourceManual)
}

func newInvoice(tenantID, clientID uuid.UUID, amount decimal.Decimal, issueDate time.Time, dueDate *time.Time, source InvoiceSource) (*Invoice, error) {
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Invoice amount must be positive")
	}
	if issueDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_ISSUE_DATE", "Issue date is required")
	}

	issue := DateOf(issueDate)
	due, err := normalizeDueDate(issue, dueDate)
	if err != nil {
		return nil, err
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ClientID:            clientID,
		Amount:              amount.Round(2),
		Status:              InvoiceStatusPending,
		IssueDate:           issue,
		DueDate:             due,
		Period:              PeriodOf(issue),
		Source:              source,
	}
	inv.AddDomainEvent(NewInvoiceIssuedEvent(inv))
	return inv, nil
}

// NewMonthlyInvoice creates the generator's invoice for a client's plan.
// The due date is the issue date shifted by dueOffsetDays.
func NewMonthlyInvoice(tenantID, clientID uuid.UUID, plan string, asOf time.Time, dueOffsetDays int) (*Invoice, error) {
	if dueOffsetDays < 0 {
		return nil, shared.NewDomainError("INVALID_DUE_OFFSET", "Due date offset cannot be negative")
	}
	issue := DateOf(asOf)
	due := issue.AddDate(0, 0, dueOffsetDays)

	return newInvoice(tenantID, clientID, PriceForPlan(plan), issue, &due, InvoiceSourceGenerator)
}

// IsPending returns true if the invoice is awaiting payment
func (i *Invoice) IsPending() bool {
	return i.Status == InvoiceStatusPending
}

// IsPaid returns true if the invoice has been settled
func (i *Invoice) IsPaid() bool {
	return i.Status == InvoiceStatusPaid
}

// MarkPaid moves the invoice to paid. It reports whether the status changed;
// marking an already paid invoice is a no-op.
func (i *Invoice) MarkPaid(at time.Time) bool {
	if i.IsPaid() {
		return false
	}
	i.Status = InvoiceStatusPaid
	paidAt := at
	i.PaidAt = &paidAt
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	i.AddDomainEvent(NewInvoicePaidEvent(i))
	return true
}

// TransitionTo applies an explicit status change requested by a caller.
// Only pending -> paid is allowed; repeating the current status is a no-op.
func (i *Invoice) TransitionTo(status InvoiceStatus, at time.Time) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Invoice status must be 'pending' or 'paid'")
	}
	if status == i.Status {
		return nil
	}
	if status == InvoiceStatusPending {
		return shared.NewDomainError("INVALID_STATE", "A paid invoice cannot return to pending")
	}
	i.MarkPaid(at)
	return nil
}

// Revise replaces the amount and due date of a pending invoice as one change.
// A nil due date clears it.
func (i *Invoice) Revise(amount decimal.Decimal, dueDate *time.Time) error {
	if !i.IsPending() {
		return shared.NewDomainError("INVALID_STATE", "Only pending invoices can be modified")
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Invoice amount must be positive")
	}
	due, err := normalizeDueDate(i.IssueDate, dueDate)
	if err != nil {
		return err
	}
	i.Amount = amount.Round(2)
	i.DueDate = due
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	return nil
}

// IsOverdue reports whether the invoice is pending past its due date.
func (i *Invoice) IsOverdue(today time.Time) bool {
	return i.IsPending() && i.DueDate != nil && i.DueDate.Before(DateOf(today))
}

func normalizeDueDate(issue time.Time, dueDate *time.Time) (*time.Time, error) {
	if dueDate == nil || dueDate.IsZero() {
		return nil, nil
	}
	due := DateOf(*dueDate)
	if due.Before(issue) {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be before the issue date")
	}
	return &due, nil
}
