package client

import (
	"github.com/cablenet/billing/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypeClient identifies client events.
const AggregateTypeClient = "Client"

// Event type constants
const (
	EventTypeClientCreated     = "ClientCreated"
	EventTypeClientPlanChanged = "ClientPlanChanged"
)

// ClientCreatedEvent is published when a new client is registered
type ClientCreatedEvent struct {
	shared.BaseDomainEvent
	ClientID uuid.UUID `json:"client_id"`
	FullName string    `json:"full_name"`
	PlanType string    `json:"plan_type,omitempty"`
}

// NewClientCreatedEvent creates a new ClientCreatedEvent
func NewClientCreatedEvent(c *Client) *ClientCreatedEvent {
	return &ClientCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClientCreated, AggregateTypeClient, c.ID, c.TenantID),
		ClientID:        c.ID,
		FullName:        c.FullName,
		PlanType:        c.PlanType,
	}
}

// ClientPlanChangedEvent is published when the billing plan of a client changes
type ClientPlanChangedEvent struct {
	shared.BaseDomainEvent
	ClientID uuid.UUID `json:"client_id"`
	OldPlan  string    `json:"old_plan,omitempty"`
	NewPlan  string    `json:"new_plan,omitempty"`
}

// NewClientPlanChangedEvent creates a new ClientPlanChangedEvent
func NewClientPlanChangedEvent(c *Client, oldPlan string) *ClientPlanChangedEvent {
	return &ClientPlanChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClientPlanChanged, AggregateTypeClient, c.ID, c.TenantID),
		ClientID:        c.ID,
		OldPlan:         oldPlan,
		NewPlan:         c.PlanType,
	}
}
