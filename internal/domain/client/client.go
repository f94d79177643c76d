package client

import (
	"regexp"
	"strings"
	"time"

	"github.com/cablenet/billing/internal/domain/shared"
	"github.com/google/uuid"
)

var (
	phonePattern = regexp.MustCompile(`^[\d\s\-\(\)\+]+$`)
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// Client is a subscriber of the cable/internet service.
// It is the aggregate root for client contact data and the plan that drives
// monthly invoicing. A client with an empty PlanType is never invoiced.
type Client struct {
	shared.TenantAggregateRoot
	FullName       string
	Document       string
	Email          string
	PhoneNumber    string
	ServiceAddress string
	BillingAddress string
	ClientType     string
	PlanType       string
}

// Details carries the mutable fields of a client.
type Details struct {
	FullName       string
	Document       string
	Email          string
	PhoneNumber    string
	ServiceAddress string
	BillingAddress string
	ClientType     string
	PlanType       string
}

// NewClient validates the details and creates a client for the tenant.
func NewClient(tenantID uuid.UUID, d Details) (*Client, error) {
	d = d.normalized()
	if err := d.validate(); err != nil {
		return nil, err
	}

	c := &Client{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
	}
	c.apply(d)
	c.AddDomainEvent(NewClientCreatedEvent(c))
	return c, nil
}

// Update replaces all mutable fields. A plan change raises ClientPlanChanged.
func (c *Client) Update(d Details) error {
	d = d.normalized()
	if err := d.validate(); err != nil {
		return err
	}

	oldPlan := c.PlanType
	c.apply(d)
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	if oldPlan != c.PlanType {
		c.AddDomainEvent(NewClientPlanChangedEvent(c, oldPlan))
	}
	return nil
}

// ChangePlan assigns a new plan. An empty plan removes the client from invoicing.
func (c *Client) ChangePlan(plan string) error {
	plan = strings.TrimSpace(plan)
	if len(plan) > 50 {
		return shared.NewDomainError("INVALID_PLAN", "Plan name cannot exceed 50 characters")
	}
	if plan == c.PlanType {
		return nil
	}

	oldPlan := c.PlanType
	c.PlanType = plan
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	c.AddDomainEvent(NewClientPlanChangedEvent(c, oldPlan))
	return nil
}

// HasPlan reports whether the client is subject to monthly invoicing.
func (c *Client) HasPlan() bool {
	return strings.TrimSpace(c.PlanType) != ""
}

func (c *Client) apply(d Details) {
	c.FullName = d.FullName
	c.Document = d.Document
	c.Email = d.Email
	c.PhoneNumber = d.PhoneNumber
	c.ServiceAddress = d.ServiceAddress
	c.BillingAddress = d.BillingAddress
	c.ClientType = d.ClientType
	c.PlanType = d.PlanType
}

func (d Details) normalized() Details {
	d.FullName = strings.TrimSpace(d.FullName)
	d.Document = strings.TrimSpace(d.Document)
	d.Email = strings.TrimSpace(d.Email)
	d.PhoneNumber = strings.TrimSpace(d.PhoneNumber)
	d.ClientType = strings.TrimSpace(d.ClientType)
	d.PlanType = strings.TrimSpace(d.PlanType)
	return d
}

func (d Details) validate() error {
	if d.FullName == "" {
		return shared.NewDomainError("INVALID_NAME", "Client full name cannot be empty")
	}
	if len(d.FullName) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Client full name cannot exceed 100 characters")
	}
	if len(d.Document) > 20 {
		return shared.NewDomainError("INVALID_DOCUMENT", "Document cannot exceed 20 characters")
	}
	if d.Email != "" {
		if len(d.Email) > 100 {
			return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 100 characters")
		}
		if !emailPattern.MatchString(d.Email) {
			return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
		}
	}
	if d.PhoneNumber != "" {
		if len(d.PhoneNumber) > 20 {
			return shared.NewDomainError("INVALID_PHONE", "Phone number cannot exceed 20 characters")
		}
		if !phonePattern.MatchString(d.PhoneNumber) {
			return shared.NewDomainError("INVALID_PHONE", "Invalid phone number format")
		}
	}
	if len(d.ClientType) > 50 {
		return shared.NewDomainError("INVALID_CLIENT_TYPE", "Client type cannot exceed 50 characters")
	}
	if len(d.PlanType) > 50 {
		return shared.NewDomainError("INVALID_PLAN", "Plan name cannot exceed 50 characters")
	}
	return nil
}
