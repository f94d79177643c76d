package identity

import (
	"context"

	"github.com/cablenet/billing/internal/domain/shared"
	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence.
// Usernames are unique across tenants because login carries no tenant.
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// Update updates an existing user
	Update(ctx context.Context, user *User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*User, error)

	// FindAllForTenant returns a page of users of a tenant, ordered by username
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]User, error)

	// CountForTenant counts users of a tenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// ExistsByUsername checks if a username already exists
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// DeleteByUsername deletes a user of the tenant by username
	DeleteByUsername(ctx context.Context, tenantID uuid.UUID, username string) error
}
