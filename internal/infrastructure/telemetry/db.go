package telemetry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTelemetryConfig holds configuration for database tracing and metrics.
type DBTelemetryConfig struct {
	Tracing         bool
	Metrics         bool
	LogFullSQL      bool          // include query variables in spans; dev only
	SlowQueryThresh time.Duration // default 200ms
	DBSystem        string        // default "postgresql"
}

type queryStartKey struct{}

// DBTelemetryPlugin is a gorm.Plugin that registers otelgorm spans and
// query latency metrics, and flags slow queries on the active span.
type DBTelemetryPlugin struct {
	config DBTelemetryConfig
	logger *zap.Logger

	queryTotal    *Counter
	queryDuration *Histogram
	slowQueries   *Counter
}

// NewDBTelemetryPlugin creates the plugin. meter may be nil when metrics are off.
func NewDBTelemetryPlugin(cfg DBTelemetryConfig, meter metric.Meter, logger *zap.Logger) (*DBTelemetryPlugin, error) {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = "postgresql"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &DBTelemetryPlugin{config: cfg, logger: logger}

	if cfg.Metrics && meter != nil {
		var err error
		if p.queryTotal, err = NewCounter(meter, "db_query_total", "Database queries by operation", "{query}"); err != nil {
			return nil, err
		}
		if p.queryDuration, err = NewHistogram(meter, HistogramOpts{
			Name:        "db_query_duration_seconds",
			Description: "Database query latency",
			Unit:        "s",
			Boundaries:  DBDurationBuckets,
		}); err != nil {
			return nil, err
		}
		if p.slowQueries, err = NewCounter(meter, "db_slow_query_total", "Queries slower than the threshold", "{query}"); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Name implements gorm.Plugin.
func (p *DBTelemetryPlugin) Name() string {
	return "billing:telemetry"
}

// Initialize implements gorm.Plugin.
func (p *DBTelemetryPlugin) Initialize(db *gorm.DB) error {
	if !p.config.Tracing && p.queryTotal == nil {
		return nil
	}

	if p.config.Tracing {
		opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
		if !p.config.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return err
		}
	}

	cb := db.Callback()
	hooks := []struct {
		op       string
		register func(before, after func(*gorm.DB)) error
	}{
		{"create", func(b, a func(*gorm.DB)) error {
			if err := cb.Create().Before("gorm:create").Register("telemetry:before_create", b); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Register("telemetry:after_create", a)
		}},
		{"select", func(b, a func(*gorm.DB)) error {
			if err := cb.Query().Before("gorm:query").Register("telemetry:before_query", b); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Register("telemetry:after_query", a)
		}},
		{"update", func(b, a func(*gorm.DB)) error {
			if err := cb.Update().Before("gorm:update").Register("telemetry:before_update", b); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Register("telemetry:after_update", a)
		}},
		{"delete", func(b, a func(*gorm.DB)) error {
			if err := cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", b); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Register("telemetry:after_delete", a)
		}},
		{"raw", func(b, a func(*gorm.DB)) error {
			if err := cb.Raw().Before("gorm:raw").Register("telemetry:before_raw", b); err != nil {
				return err
			}
			return cb.Raw().After("gorm:raw").Register("telemetry:after_raw", a)
		}},
	}
	for _, h := range hooks {
		op := h.op
		if err := h.register(p.before, func(db *gorm.DB) { p.after(db, op) }); err != nil {
			return err
		}
	}

	p.logger.Info("Database telemetry enabled",
		zap.Bool("tracing", p.config.Tracing),
		zap.Bool("metrics", p.queryTotal != nil),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
	)
	return nil
}

func (p *DBTelemetryPlugin) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (p *DBTelemetryPlugin) after(db *gorm.DB, operation string) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	slow := elapsed > p.config.SlowQueryThresh
	if operation == "raw" {
		operation = detectOperation(db.Statement.SQL.String())
	}

	if p.queryTotal != nil {
		attrs := []attribute.KeyValue{AttrDBOperation.String(operation), AttrDBTable.String(db.Statement.Table)}
		p.queryTotal.Inc(ctx, attrs...)
		p.queryDuration.RecordDuration(ctx, elapsed, attrs...)
		if slow {
			p.slowQueries.Inc(ctx, attrs...)
		}
	}

	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		RecordError(span, db.Error)
	}
	if slow {
		span.SetAttributes(attribute.Bool("db.slow_query", true))
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
		))
	}
}

func detectOperation(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "raw"
	}
	switch op := strings.ToLower(fields[0]); op {
	case "select", "insert", "update", "delete", "with":
		return op
	default:
		return "raw"
	}
}
