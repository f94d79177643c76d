package models

import "github.com/cablenet/billing/internal/domain/client"

// ClientModel is the persistence model for the Client aggregate.
type ClientModel struct {
	TenantAggregateModel
	FullName       string `gorm:"type:varchar(100);not null"`
	Document       string `gorm:"type:varchar(20);index"`
	Email          string `gorm:"type:varchar(100)"`
	PhoneNumber    string `gorm:"type:varchar(20)"`
	ServiceAddress string `gorm:"type:text"`
	BillingAddress string `gorm:"type:text"`
	ClientType     string `gorm:"type:varchar(50)"`
	PlanType       string `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the persistence model to a domain Client.
func (m *ClientModel) ToDomain() *client.Client {
	c := &client.Client{
		FullName:       m.FullName,
		Document:       m.Document,
		Email:          m.Email,
		PhoneNumber:    m.PhoneNumber,
		ServiceAddress: m.ServiceAddress,
		BillingAddress: m.BillingAddress,
		ClientType:     m.ClientType,
		PlanType:       m.PlanType,
	}
	m.PopulateTenantAggregateRoot(&c.TenantAggregateRoot)
	return c
}

// FromDomain populates the persistence model from a domain Client.
func (m *ClientModel) FromDomain(c *client.Client) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.FullName = c.FullName
	m.Document = c.Document
	m.Email = c.Email
	m.PhoneNumber = c.PhoneNumber
	m.ServiceAddress = c.ServiceAddress
	m.BillingAddress = c.BillingAddress
	m.ClientType = c.ClientType
	m.PlanType = c.PlanType
}

// ClientModelFromDomain creates a new persistence model from a domain Client.
func ClientModelFromDomain(c *client.Client) *ClientModel {
	m := &ClientModel{}
	m.FromDomain(c)
	return m
}
