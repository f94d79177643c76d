package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"BILLING_APP_NAME",
	"BILLING_APP_ENV",
	"BILLING_APP_PORT",
	"BILLING_DATABASE_URL",
	"BILLING_DATABASE_HOST",
	"BILLING_DATABASE_PORT",
	"BILLING_DATABASE_USER",
	"BILLING_DATABASE_PASSWORD",
	"BILLING_DATABASE_DBNAME",
	"BILLING_DATABASE_SSLMODE",
	"BILLING_DATABASE_MAX_OPEN_CONNS",
	"BILLING_DATABASE_MAX_IDLE_CONNS",
	"BILLING_JWT_SECRET",
	"BILLING_BILLING_DUE_DATE_OFFSET_DAYS",
	"BILLING_BILLING_DEFAULT_TENANT_ID",
	"BILLING_SCHEDULER_TIMEZONE",
	"BILLING_SWAGGER_ENABLED",
	"BILLING_SWAGGER_REQUIRE_AUTH",
	"BILLING_SWAGGER_ALLOWED_IPS",
	"BILLING_HTTP_CORS_ALLOW_ORIGINS",
	"DATABASE_URL",
}

// isolateEnv runs the test in an empty directory with every config key unset.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Chdir(t.TempDir())
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		isolateEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "cablenet-billing", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8000", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres", cfg.Database.User)
		assert.Equal(t, "billing", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, 0, cfg.Billing.DueDateOffsetDays)
		assert.Equal(t, DefaultTenantID, cfg.Billing.DefaultTenantID)
		assert.Equal(t, "0 6 1 * *", cfg.Scheduler.InvoiceCronSchedule)
		assert.Equal(t, 30*time.Minute, cfg.JWT.AccessTokenExpiration)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	})

	t.Run("loads values from environment variables with BILLING prefix", func(t *testing.T) {
		isolateEnv(t)
		t.Setenv("BILLING_APP_NAME", "test-app")
		t.Setenv("BILLING_APP_ENV", "testing")
		t.Setenv("BILLING_APP_PORT", "9000")
		t.Setenv("BILLING_DATABASE_HOST", "testdb.local")
		t.Setenv("BILLING_DATABASE_PORT", "5433")
		t.Setenv("BILLING_DATABASE_USER", "testuser")
		t.Setenv("BILLING_DATABASE_PASSWORD", "testpass")
		t.Setenv("BILLING_DATABASE_DBNAME", "testdb")
		t.Setenv("BILLING_DATABASE_SSLMODE", "require")
		t.Setenv("BILLING_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("BILLING_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("BILLING_BILLING_DUE_DATE_OFFSET_DAYS", "10")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testing", cfg.App.Env)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testuser", cfg.Database.User)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "testdb", cfg.Database.DBName)
		assert.Equal(t, "require", cfg.Database.SSLMode)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, 10, cfg.Billing.DueDateOffsetDays)
	})

	t.Run("DATABASE_URL is used when no prefixed url is set", func(t *testing.T) {
		isolateEnv(t)
		t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/billing?sslmode=require")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "postgres://u:p@db:5432/billing?sslmode=require", cfg.Database.DSN())
	})

	t.Run("reads .env file from working directory", func(t *testing.T) {
		isolateEnv(t)
		dir, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BILLING_APP_PORT=7100\n"), 0o600))
		t.Cleanup(func() { os.Unsetenv("BILLING_APP_PORT") })

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "7100", cfg.App.Port)
	})

	t.Run("reads config.toml from working directory", func(t *testing.T) {
		isolateEnv(t)
		dir, err := os.Getwd()
		require.NoError(t, err)
		toml := "[billing]\ndue_date_offset_days = 5\n\n[scheduler]\nenabled = true\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0o600))

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.Billing.DueDateOffsetDays)
		assert.True(t, cfg.Scheduler.Enabled)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		isolateEnv(t)
		t.Setenv("BILLING_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("BILLING_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("zero MaxOpenConns uses default", func(t *testing.T) {
		isolateEnv(t)
		t.Setenv("BILLING_DATABASE_MAX_OPEN_CONNS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	})

	t.Run("rejects negative due date offset", func(t *testing.T) {
		isolateEnv(t)
		t.Setenv("BILLING_BILLING_DUE_DATE_OFFSET_DAYS", "-3")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "due_date_offset_days")
	})

	t.Run("rejects malformed default tenant", func(t *testing.T) {
		isolateEnv(t)
		t.Setenv("BILLING_BILLING_DEFAULT_TENANT_ID", "tenant-one")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "default_tenant_id")
	})

	t.Run("rejects unknown scheduler timezone", func(t *testing.T) {
		isolateEnv(t)
		t.Setenv("BILLING_SCHEDULER_TIMEZONE", "Mars/Olympus")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "scheduler.timezone")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		isolateEnv(t)
		t.Setenv("BILLING_APP_ENV", "production")
		t.Setenv("BILLING_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("BILLING_DATABASE_PASSWORD", "secure-password")
		t.Setenv("BILLING_DATABASE_SSLMODE", "require")
		t.Setenv("BILLING_SWAGGER_ENABLED", "false")
	}

	t.Run("requires jwt.secret at least 32 characters in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("BILLING_JWT_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret must be at least 32 characters")
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		setValidProductionBase(t)
		os.Unsetenv("BILLING_DATABASE_PASSWORD")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("BILLING_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("database url skips discrete credential checks", func(t *testing.T) {
		setValidProductionBase(t)
		os.Unsetenv("BILLING_DATABASE_PASSWORD")
		t.Setenv("DATABASE_URL", "postgres://u:p@db/billing?sslmode=require")

		_, err := Load()
		require.NoError(t, err)
	})

	t.Run("rejects wildcard cors origin in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("BILLING_HTTP_CORS_ALLOW_ORIGINS", "*")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cors_allow_origins")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	t.Run("fails if swagger enabled without protection in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("BILLING_SWAGGER_ENABLED", "true")
		t.Setenv("BILLING_SWAGGER_REQUIRE_AUTH", "false")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "swagger endpoint must be disabled, require authentication, or have IP restriction")
	})

	t.Run("passes with swagger enabled and require_auth in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("BILLING_SWAGGER_ENABLED", "true")
		t.Setenv("BILLING_SWAGGER_REQUIRE_AUTH", "true")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Swagger.Enabled)
		assert.True(t, cfg.Swagger.RequireAuth)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})

	t.Run("url takes precedence", func(t *testing.T) {
		cfg := DatabaseConfig{URL: "postgres://x@y/z", Host: "ignored"}
		assert.Equal(t, "postgres://x@y/z", cfg.DSN())
	})
}
