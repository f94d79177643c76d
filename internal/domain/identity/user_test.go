package identity

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates user with valid username and password", func(t *testing.T) {
		user, err := NewUser(tenantID, "cajero1", "Password123", "Ana Torres")

		require.NoError(t, err)
		assert.Equal(t, tenantID, user.TenantID)
		assert.Equal(t, "cajero1", user.Username)
		assert.Equal(t, "Ana Torres", user.FullName)
		assert.Equal(t, UserRoleOperator, user.Role)
		assert.True(t, user.Active)
		assert.NotEmpty(t, user.PasswordHash)
		assert.NotEqual(t, "Password123", user.PasswordHash)

		events := user.GetDomainEvents()
		require.Len(t, events, 1)
		_, ok := events[0].(*UserCreatedEvent)
		assert.True(t, ok)
	})

	t.Run("normalizes username", func(t *testing.T) {
		user, err := NewUser(tenantID, "  Admin.User  ", "Password123", "")

		require.NoError(t, err)
		assert.Equal(t, "admin.user", user.Username)
	})

	t.Run("fails with empty username", func(t *testing.T) {
		_, err := NewUser(tenantID, "", "Password123", "")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be empty")
	})

	t.Run("fails with short username", func(t *testing.T) {
		_, err := NewUser(tenantID, "ab", "Password123", "")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "at least 3 characters")
	})

	t.Run("fails with invalid characters", func(t *testing.T) {
		_, err := NewUser(tenantID, "bad user", "Password123", "")

		assert.Error(t, err)
	})

	t.Run("fails with weak password", func(t *testing.T) {
		_, err := NewUser(tenantID, "cajero1", "onlyletters", "")
		assert.Error(t, err)

		_, err = NewUser(tenantID, "cajero1", "short1", "")
		assert.Error(t, err)

		_, err = NewUser(tenantID, "cajero1", strings.Repeat("a1", 40), "")
		assert.Error(t, err)
	})

	t.Run("fails with long full name", func(t *testing.T) {
		_, err := NewUser(tenantID, "cajero1", "Password123", strings.Repeat("x", 101))

		assert.Error(t, err)
	})
}

func TestNewAdmin(t *testing.T) {
	user, err := NewAdmin(uuid.New(), "admin", "Admin12345", "Administrador")

	require.NoError(t, err)
	assert.True(t, user.IsAdmin())
	assert.Equal(t, UserRoleAdmin, user.Role)
}

func TestUser_VerifyPassword(t *testing.T) {
	user, err := NewUser(uuid.New(), "cajero1", "Password123", "")
	require.NoError(t, err)

	assert.True(t, user.VerifyPassword("Password123"))
	assert.False(t, user.VerifyPassword("password123"))
	assert.False(t, user.VerifyPassword(""))
}

func TestUser_SetPassword(t *testing.T) {
	user, err := NewUser(uuid.New(), "cajero1", "Password123", "")
	require.NoError(t, err)
	oldHash := user.PasswordHash

	require.NoError(t, user.SetPassword("NewPassword456"))
	assert.NotEqual(t, oldHash, user.PasswordHash)
	assert.True(t, user.VerifyPassword("NewPassword456"))
	assert.Equal(t, 2, user.GetVersion())

	assert.Error(t, user.SetPassword("weak"))
}

func TestUser_SetEmail(t *testing.T) {
	user, err := NewUser(uuid.New(), "cajero1", "Password123", "")
	require.NoError(t, err)

	require.NoError(t, user.SetEmail("ana@cablenet.pe"))
	assert.Equal(t, "ana@cablenet.pe", user.Email)

	assert.Error(t, user.SetEmail("not-an-email"))

	require.NoError(t, user.SetEmail(""))
	assert.Empty(t, user.Email)
}

func TestUser_SetRole(t *testing.T) {
	user, err := NewUser(uuid.New(), "cajero1", "Password123", "")
	require.NoError(t, err)

	require.NoError(t, user.SetRole(UserRoleAdmin))
	assert.True(t, user.IsAdmin())

	assert.Error(t, user.SetRole(UserRole("root")))
}

func TestUser_Deactivate(t *testing.T) {
	user, err := NewUser(uuid.New(), "cajero1", "Password123", "")
	require.NoError(t, err)

	require.NoError(t, user.Deactivate())
	assert.False(t, user.CanLogin())

	assert.Error(t, user.Deactivate())
}

func TestUser_DisplayName(t *testing.T) {
	user, err := NewUser(uuid.New(), "cajero1", "Password123", "")
	require.NoError(t, err)
	assert.Equal(t, "cajero1", user.DisplayName())

	user.FullName = "Ana Torres"
	assert.Equal(t, "Ana Torres", user.DisplayName())
}
