// Package models holds the GORM rows behind the billing tables. Domain
// aggregates carry no ORM tags; each model converts to and from its
// aggregate with ToDomain and FromDomain.
//
//   - base.go: columns shared by every tenant-scoped table
//   - client.go: clients
//   - billing.go: invoices and payments
//   - catalog.go: services
//   - identity.go: users
package models
