package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	appbilling "github.com/cablenet/billing/internal/application/billing"
	"github.com/cablenet/billing/internal/domain/identity"
	"github.com/cablenet/billing/internal/infrastructure/cache"
	"github.com/cablenet/billing/internal/infrastructure/config"
	"github.com/cablenet/billing/internal/infrastructure/logger"
	"github.com/cablenet/billing/internal/infrastructure/migration"
	"github.com/cablenet/billing/internal/infrastructure/persistence"
	"github.com/cablenet/billing/internal/infrastructure/scheduler"
	"github.com/cablenet/billing/migrations"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	var (
		migrationsPath string
		logLevel       string
	)

	flag.StringVar(&migrationsPath, "path", "", "Read migrations from this directory instead of the embedded set")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(config.LogConfig{
		Level:  logLevel,
		Format: "console",
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	if migrationsPath != "" {
		abs, err := filepath.Abs(migrationsPath)
		if err != nil {
			log.Fatal("Failed to resolve migrations path", zap.Error(err))
		}
		migrationsPath = abs
	}

	log.Info("Migration CLI started",
		zap.String("command", command),
		zap.String("migrations_path", describeSource(migrationsPath)),
	)

	// Commands that only touch files
	switch command {
	case "create":
		if len(args) < 2 {
			log.Fatal("Migration name required. Usage: migrate create <name> [description]")
		}
		dir := migrationsPath
		if dir == "" {
			dir = "migrations"
		}
		description := ""
		if len(args) > 2 {
			description = args[2]
		}
		mf, err := migration.CreateMigration(dir, args[1], description)
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}
		log.Info("Migration created",
			zap.Uint("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return

	case "list":
		var source fs.FS = migrations.FS
		if migrationsPath != "" {
			source = os.DirFS(migrationsPath)
		}
		list, err := migration.ListMigrations(source)
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}
		if len(list) == 0 {
			log.Info("No migrations found")
			return
		}
		log.Info("Available migrations", zap.Int("count", len(list)))
		for _, m := range list {
			down := ""
			if !m.HasDown {
				down = " (no down)"
			}
			fmt.Printf("  - %s%s\n", m.ID(), down)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	if command == "seed-admin" {
		if err := seedAdmin(cfg, args[1:], log); err != nil {
			log.Fatal("Failed to seed admin", zap.Error(err))
		}
		return
	}

	if command == "generate" {
		if err := generateInvoices(cfg, args[1:], log); err != nil {
			log.Fatal("Invoice generation failed", zap.Error(err))
		}
		return
	}

	m, closeDB := openMigrator(cfg, migrationsPath, log)
	defer closeDB()
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()

	switch command {
	case "up":
		if err := m.Up(); err != nil {
			log.Fatal("Migration up failed", zap.Error(err))
		}

	case "down":
		if err := m.Down(); err != nil {
			log.Fatal("Migration down failed", zap.Error(err))
		}

	case "step":
		if len(args) < 2 {
			log.Fatal("Step count required. Usage: migrate step <n>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal("Invalid step count", zap.String("value", args[1]))
		}
		if err := m.Steps(n); err != nil {
			log.Fatal("Migration step failed", zap.Error(err))
		}

	case "goto":
		if len(args) < 2 {
			log.Fatal("Version required. Usage: migrate goto <version>")
		}
		version, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			log.Fatal("Invalid version number", zap.String("value", args[1]))
		}
		if err := m.GoTo(uint(version)); err != nil {
			log.Fatal("Migration goto failed", zap.Error(err))
		}

	case "version":
		status, err := m.Status()
		if err != nil {
			log.Fatal("Failed to get version", zap.Error(err))
		}
		if status.Version == 0 {
			log.Info("No migrations applied")
		} else {
			log.Info("Current migration version",
				zap.Uint("version", status.Version),
				zap.Bool("dirty", status.Dirty),
			)
		}

	case "force":
		if len(args) < 2 {
			log.Fatal("Version required. Usage: migrate force <version>")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal("Invalid version number", zap.String("value", args[1]))
		}
		if err := m.Force(version); err != nil {
			log.Fatal("Force version failed", zap.Error(err))
		}

	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

func describeSource(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}

// openMigrator reads from the embedded migrations unless a directory was given.
func openMigrator(cfg *config.Config, dir string, log *zap.Logger) (*migration.Migrator, func()) {
	if dir != "" {
		m, err := migration.NewFromDir(cfg.Database.DSN(), dir, log)
		if err != nil {
			log.Fatal("Failed to create migrator", zap.Error(err))
		}
		return m, func() {}
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database", zap.Error(err))
	}

	m, err := migration.New(db, migrations.FS, log)
	if err != nil {
		_ = db.Close()
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	return m, func() { _ = db.Close() }
}

// seedAdmin creates the first admin of a tenant. Arguments are
// <username> <password> [tenant-id]; the tenant defaults to the configured one.
func seedAdmin(cfg *config.Config, args []string, log *zap.Logger) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: migrate seed-admin <username> <password> [tenant-id]")
	}
	tenantID := cfg.Billing.TenantUUID()
	if len(args) > 2 {
		parsed, err := uuid.Parse(args[2])
		if err != nil {
			return fmt.Errorf("invalid tenant id %q: %w", args[2], err)
		}
		tenantID = parsed
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo := persistence.NewGormUserRepository(db.DB)
	exists, err := repo.ExistsByUsername(ctx, identity.NormalizeUsername(args[0]))
	if err != nil {
		return err
	}
	if exists {
		log.Info("Admin already exists, nothing to do", zap.String("username", args[0]))
		return nil
	}

	admin, err := identity.NewAdmin(tenantID, args[0], args[1], "Administrator")
	if err != nil {
		return err
	}
	if err := repo.Create(ctx, admin); err != nil {
		return err
	}

	log.Info("Admin created",
		zap.String("username", admin.Username),
		zap.String("tenant_id", tenantID.String()),
	)
	return nil
}

// generateInvoices runs the monthly generation for one tenant outside the
// server, under the same lock and run history as the cron job.
func generateInvoices(cfg *config.Config, args []string, log *zap.Logger) error {
	tenantID, asOf, err := parseGenerateArgs(args)
	if err != nil {
		return err
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var redisClient redis.UniversalClient
	if client, err := cache.NewRedisClient(cfg.Redis); err != nil {
		log.Warn("Redis unavailable, locking in-process only", zap.Error(err))
	} else {
		redisClient = client
		defer func() { _ = client.Close() }()
	}

	generator := appbilling.NewInvoiceGenerator(
		persistence.NewGormBillingTransactionScope(db.DB), cfg.Billing.DueDateOffsetDays, log)
	runner, err := scheduler.NewInvoiceScheduler(cfg.Scheduler, generator,
		persistence.NewGormClientRepository(db.DB), cache.NewFactory(redisClient, log).Locker(), log)
	if err != nil {
		return err
	}
	runner.SetRunStore(scheduler.NewGenerationRunRepository(db.DB))
	if asOf.IsZero() {
		asOf = runner.Today()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Scheduler.JobTimeout+time.Minute)
	defer cancel()

	result, err := runner.RunTenant(ctx, tenantID, asOf, scheduler.RunTriggerCLI)
	if err != nil {
		return err
	}

	log.Info("Invoices generated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("period", result.Period),
		zap.Int("created", result.Created),
		zap.Int("skipped", len(result.Skipped)),
	)
	return nil
}

// parseGenerateArgs reads <tenant-id> [as-of]. A missing date is returned as
// the zero time.
func parseGenerateArgs(args []string) (uuid.UUID, time.Time, error) {
	if len(args) < 1 {
		return uuid.Nil, time.Time{}, fmt.Errorf("usage: migrate generate <tenant-id> [YYYY-MM-DD]")
	}
	tenantID, err := uuid.Parse(args[0])
	if err != nil {
		return uuid.Nil, time.Time{}, fmt.Errorf("invalid tenant id %q: %w", args[0], err)
	}
	if len(args) < 2 {
		return tenantID, time.Time{}, nil
	}
	asOf, err := appbilling.ParseDate(args[1])
	if err != nil {
		return uuid.Nil, time.Time{}, fmt.Errorf("invalid date %q: %w", args[1], err)
	}
	return tenantID, *asOf, nil
}

func printUsage() {
	fmt.Println(`Billing Database Migration Tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                                   Apply all pending migrations
  down                                 Roll back all migrations
  step <n>                             Apply n migrations (positive=up, negative=down)
  goto <version>                       Migrate to a specific version
  version                              Show current migration version
  force <version>                      Force set migration version (use with caution)
  create <name> [desc]                 Create a new migration file pair
  list                                 List available migrations
  seed-admin <user> <pass> [tenant]    Create the first admin user
  generate <tenant> [YYYY-MM-DD]       Issue the monthly invoices of a tenant

Flags:
  -path string          Read migrations from a directory (default: embedded)
  -log-level string     Log level: debug, info, warn, error (default: info)

Environment Variables:
  BILLING_DATABASE_URL or BILLING_DATABASE_HOST, _PORT, _USER, _PASSWORD, _DBNAME, _SSLMODE

Examples:
  # Apply all pending migrations
  migrate up

  # Roll back the last migration
  migrate step -1

  # Create the first admin
  migrate seed-admin admin S3cret-pass

  # Bill March 2024 for the default tenant
  migrate generate 00000000-0000-0000-0000-000000000001 2024-03-15`)
}
