package billing

import (
	"context"
	"fmt"

	"github.com/cablenet/billing/internal/domain/billing"
	"github.com/cablenet/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MetricsRecorder receives billing business metrics.
type MetricsRecorder interface {
	RecordInvoiceIssued(ctx context.Context, tenantID uuid.UUID, source string, amount decimal.Decimal)
	RecordPayment(ctx context.Context, tenantID uuid.UUID, method string, amount decimal.Decimal)
}

// MetricsHandler turns billing events into business metrics
type MetricsHandler struct {
	recorder MetricsRecorder
}

// NewMetricsHandler creates a new MetricsHandler
func NewMetricsHandler(recorder MetricsRecorder) *MetricsHandler {
	return &MetricsHandler{recorder: recorder}
}

// EventTypes returns the event types this handler is interested in
func (h *MetricsHandler) EventTypes() []string {
	return []string{billing.EventTypeInvoiceIssued, billing.EventTypePaymentRecorded}
}

// Handle records the metric matching the event
func (h *MetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *billing.InvoiceIssuedEvent:
		h.recorder.RecordInvoiceIssued(ctx, e.TenantID(), string(e.Source), e.Amount)
	case *billing.PaymentRecordedEvent:
		h.recorder.RecordPayment(ctx, e.TenantID(), e.PaymentMethod, e.AmountPaid)
	default:
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}
	return nil
}

var _ shared.EventHandler = (*MetricsHandler)(nil)
