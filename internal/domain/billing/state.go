package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillingState is the derived, never stored, billing view of a client.
type BillingState struct {
	Deuda       decimal.Decimal
	Vencimiento *time.Time
	Activo      bool
}

// NoDebt is the state of a client without pending invoices.
func NoDebt() BillingState {
	return BillingState{Deuda: decimal.Zero.Round(2), Activo: true}
}

// PendingSummary is the aggregate of one client's pending invoices as
// returned by the store: the debt total and the latest due date.
type PendingSummary struct {
	ClientID   uuid.UUID
	Total      decimal.Decimal
	MaxDueDate *time.Time
}

// ComputeState derives the billing state from a client's invoices.
// Paid invoices are ignored. It never fails: empty input is the no-debt state.
func ComputeState(invoices []Invoice, today time.Time) BillingState {
	summary := PendingSummary{Total: decimal.Zero}
	for i := range invoices {
		summary.add(&invoices[i])
	}
	return StateFromSummary(summary, today)
}

// ComputeStateForClient is ComputeState restricted to the invoices of clientID.
func ComputeStateForClient(clientID uuid.UUID, invoices []Invoice, today time.Time) BillingState {
	summary := PendingSummary{ClientID: clientID, Total: decimal.Zero}
	for i := range invoices {
		if invoices[i].ClientID != clientID {
			continue
		}
		summary.add(&invoices[i])
	}
	return StateFromSummary(summary, today)
}

// StateFromSummary derives the billing state from a store-computed summary.
// The client is inactive only when it owes money and the latest due date is
// strictly before today; without a due date it cannot be judged overdue.
func StateFromSummary(s PendingSummary, today time.Time) BillingState {
	state := BillingState{Deuda: s.Total.Round(2), Activo: true}
	if s.MaxDueDate != nil {
		due := DateOf(*s.MaxDueDate)
		state.Vencimiento = &due
	}
	if state.Deuda.IsPositive() && state.Vencimiento != nil && state.Vencimiento.Before(DateOf(today)) {
		state.Activo = false
	}
	return state
}

func (s *PendingSummary) add(inv *Invoice) {
	if !inv.IsPending() {
		return
	}
	s.Total = s.Total.Add(inv.Amount)
	if inv.DueDate != nil && (s.MaxDueDate == nil || inv.DueDate.After(*s.MaxDueDate)) {
		due := *inv.DueDate
		s.MaxDueDate = &due
	}
}
