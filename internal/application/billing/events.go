package billing

import (
	"context"

	"github.com/cablenet/billing/internal/domain/shared"
)

type eventSource interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

// publishDomainEvents drains the pending events of each aggregate into the publisher.
// Handlers run after commit; their failures are logged by the bus and never
// undo the stored change.
func publishDomainEvents(ctx context.Context, publisher shared.EventPublisher, sources ...eventSource) {
	var events []shared.DomainEvent
	for _, src := range sources {
		events = append(events, src.GetDomainEvents()...)
		src.ClearDomainEvents()
	}
	if publisher == nil || len(events) == 0 {
		return
	}
	_ = publisher.Publish(ctx, events...)
}
