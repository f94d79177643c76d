package models

import (
	"fmt"
	"time"

	"github.com/cablenet/billing/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate.
// The (client, year, month) unique index allows one invoice per client per month.
type InvoiceModel struct {
	TenantAggregateModel
	ClientID     uuid.UUID             `gorm:"type:uuid;not null;index;uniqueIndex:idx_invoice_client_period,priority:1"`
	Amount       decimal.Decimal       `gorm:"type:decimal(12,2);not null"`
	Status       billing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	IssueDate    time.Time             `gorm:"type:date;not null;index"`
	DueDate      *time.Time            `gorm:"type:date"`
	BillingYear  int                   `gorm:"not null;uniqueIndex:idx_invoice_client_period,priority:2"`
	BillingMonth int                   `gorm:"not null;uniqueIndex:idx_invoice_client_period,priority:3"`
	Source       billing.InvoiceSource `gorm:"type:varchar(20);not null;default:'manual'"`
	PaidAt       *time.Time
	Client       *ClientModel `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	inv := &billing.Invoice{
		ClientID:  m.ClientID,
		Amount:    m.Amount,
		Status:    m.Status,
		IssueDate: billing.DateOf(m.IssueDate),
		Period:    billing.BillingPeriod{Year: m.BillingYear, Month: time.Month(m.BillingMonth)},
		Source:    m.Source,
		PaidAt:    m.PaidAt,
	}
	if m.DueDate != nil {
		due := billing.DateOf(*m.DueDate)
		inv.DueDate = &due
	}
	m.PopulateTenantAggregateRoot(&inv.TenantAggregateRoot)
	return inv
}

// FromDomain populates the persistence model from a domain Invoice.
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	m.ClientID = inv.ClientID
	m.Amount = inv.Amount
	m.Status = inv.Status
	m.IssueDate = inv.IssueDate
	m.DueDate = inv.DueDate
	m.BillingYear = inv.Period.Year
	m.BillingMonth = int(inv.Period.Month)
	m.Source = inv.Source
	m.PaidAt = inv.PaidAt
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// PaymentModel is the persistence model for the Payment aggregate.
type PaymentModel struct {
	TenantAggregateModel
	InvoiceID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	AmountPaid    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentDate   time.Time       `gorm:"not null;index"`
	PaymentMethod string          `gorm:"type:varchar(50);not null;default:'Efectivo'"`
	Notes         string          `gorm:"type:text"`
	Invoice       *InvoiceModel   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *billing.Payment {
	p := &billing.Payment{
		InvoiceID:     m.InvoiceID,
		AmountPaid:    m.AmountPaid,
		PaymentDate:   m.PaymentDate,
		PaymentMethod: m.PaymentMethod,
		Notes:         m.Notes,
	}
	m.PopulateTenantAggregateRoot(&p.TenantAggregateRoot)
	return p
}

// FromDomain populates the persistence model from a domain Payment.
func (m *PaymentModel) FromDomain(p *billing.Payment) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.InvoiceID = p.InvoiceID
	m.AmountPaid = p.AmountPaid
	m.PaymentDate = p.PaymentDate
	m.PaymentMethod = p.PaymentMethod
	m.Notes = p.Notes
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *billing.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// PendingSummaryRow is the scan target of the pending-debt aggregate query.
type PendingSummaryRow struct {
	ClientID   uuid.UUID
	Total      decimal.Decimal
	MaxDueDate NullDate
}

// NullDate scans a nullable date from aggregate expressions. PostgreSQL
// returns time.Time; SQLite loses the column type and returns text.
type NullDate struct {
	Time  time.Time
	Valid bool
}

// dateLayouts are the text forms a date can come back in.
var dateLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// Scan implements sql.Scanner
func (d *NullDate) Scan(value any) error {
	*d = NullDate{}
	if value == nil {
		return nil
	}

	var text string
	switch v := value.(type) {
	case time.Time:
		d.Time, d.Valid = v, true
		return nil
	case []byte:
		text = string(v)
	case string:
		text = v
	default:
		return fmt.Errorf("failed to scan NullDate: unsupported type %T", value)
	}

	if text == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			d.Time, d.Valid = t, true
			return nil
		}
	}
	return fmt.Errorf("failed to scan NullDate: unrecognized date %q", text)
}

// Ptr returns the date or nil when NULL
func (d NullDate) Ptr() *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}
