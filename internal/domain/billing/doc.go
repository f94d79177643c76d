// Package billing holds the invoicing core of the cable/internet service:
// invoices and their pending -> paid lifecycle, payments recorded against
// invoices, the plan price table, and the derived billing state of a client
// (deuda, vencimiento, activo).
//
// Invariants:
//   - at most one invoice per client per calendar month (BillingPeriod)
//   - an invoice moves from pending to paid once and never back
//   - the billing state is computed on read and never stored
package billing
