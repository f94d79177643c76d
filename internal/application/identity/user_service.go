package identity

import (
	"context"
	"time"

	"github.com/cablenet/billing/internal/domain/identity"
	"github.com/cablenet/billing/internal/domain/shared"
	"github.com/cablenet/billing/internal/infrastructure/auth"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// ErrUsernameTaken is returned when the username is already registered in any tenant
var ErrUsernameTaken = shared.NewDomainError("ALREADY_EXISTS", "Username already registered")

// UserService manages operator accounts
type UserService struct {
	userRepo        identity.UserRepository
	blacklist       auth.TokenBlacklist
	defaultTenantID uuid.UUID
	tokenTTL        time.Duration
	eventPublisher  shared.EventPublisher
	logger          *zap.Logger
}

// NewUserService creates a new UserService. Self-registered users join
// defaultTenantID; tokenTTL bounds how long a deleted user's tokens stay revoked.
func NewUserService(
	userRepo identity.UserRepository,
	blacklist auth.TokenBlacklist,
	defaultTenantID uuid.UUID,
	tokenTTL time.Duration,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:        userRepo,
		blacklist:       blacklist,
		defaultTenantID: defaultTenantID,
		tokenTTL:        tokenTTL,
		logger:          logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *UserService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create adds a user to the tenant. Role defaults to operator.
func (s *UserService) Create(ctx context.Context, tenantID uuid.UUID, input CreateUserInput, createdBy *uuid.UUID) (*UserInfo, error) {
	exists, err := s.userRepo.ExistsByUsername(ctx, identity.NormalizeUsername(input.Username))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	user, err := identity.NewUser(tenantID, input.Username, input.Password, input.FullName)
	if err != nil {
		return nil, err
	}
	if input.Email != "" {
		if err := user.SetEmail(input.Email); err != nil {
			return nil, err
		}
	}
	if input.Role != "" {
		if err := user.SetRole(identity.UserRole(input.Role)); err != nil {
			return nil, err
		}
	}
	if createdBy != nil {
		user.SetCreatedBy(*createdBy)
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User created",
		zap.String("username", user.Username),
		zap.String("tenant_id", tenantID.String()),
		zap.String("role", string(user.Role)))

	events := user.GetDomainEvents()
	user.ClearDomainEvents()
	if s.eventPublisher != nil && len(events) > 0 {
		_ = s.eventPublisher.Publish(ctx, events...)
	}

	info := ToUserInfo(user)
	return &info, nil
}

// Register is the public sign-up: an operator in the default tenant
func (s *UserService) Register(ctx context.Context, input CreateUserInput) (*UserInfo, error) {
	input.Role = string(identity.UserRoleOperator)
	return s.Create(ctx, s.defaultTenantID, input, nil)
}

// List returns a page of the tenant's users
func (s *UserService) List(ctx context.Context, tenantID uuid.UUID, filter UserListFilter) (shared.Paginated[UserInfo], error) {
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Search:   filter.Search,
	}

	users, err := s.userRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return shared.Paginated[UserInfo]{}, err
	}
	total, err := s.userRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return shared.Paginated[UserInfo]{}, err
	}

	items := lo.Map(users, func(u identity.User, _ int) UserInfo { return ToUserInfo(&u) })
	return shared.NewPaginated(items, total, max(filter.Page, 1), domainFilter.Limit()), nil
}

// DeleteByUsername removes a user of the tenant and revokes every token issued to it
func (s *UserService) DeleteByUsername(ctx context.Context, tenantID uuid.UUID, username string) error {
	username = identity.NormalizeUsername(username)
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user.TenantID != tenantID {
		return shared.ErrNotFound
	}

	if err := s.userRepo.DeleteByUsername(ctx, tenantID, username); err != nil {
		return err
	}

	if s.blacklist != nil {
		if err := s.blacklist.RevokeUserTokens(ctx, user.ID.String(), s.tokenTTL); err != nil {
			s.logger.Error("Failed to revoke tokens of deleted user",
				zap.String("user_id", user.ID.String()),
				zap.Error(err))
		}
	}

	s.logger.Info("User deleted", zap.String("username", username), zap.String("tenant_id", tenantID.String()))
	return nil
}
