package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type loggerKey struct{}

type scopeKey struct{}

// Scope identifies who a log line was written for.
type Scope struct {
	RequestID string
	TenantID  string
	UserID    string
}

func (s Scope) fields() []zap.Field {
	fields := make([]zap.Field, 0, 3)
	if s.RequestID != "" {
		fields = append(fields, zap.String("request_id", s.RequestID))
	}
	if s.TenantID != "" {
		fields = append(fields, zap.String("tenant_id", s.TenantID))
	}
	if s.UserID != "" {
		fields = append(fields, zap.String("user_id", s.UserID))
	}
	return fields
}

// WithContext attaches a logger to ctx.
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the attached logger, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithScope merges the non-empty fields of s into the scope stored in ctx.
func WithScope(ctx context.Context, s Scope) context.Context {
	current := ScopeFrom(ctx)
	if s.RequestID != "" {
		current.RequestID = s.RequestID
	}
	if s.TenantID != "" {
		current.TenantID = s.TenantID
	}
	if s.UserID != "" {
		current.UserID = s.UserID
	}
	return context.WithValue(ctx, scopeKey{}, current)
}

// ScopeFrom returns the scope stored in ctx.
func ScopeFrom(ctx context.Context) Scope {
	s, _ := ctx.Value(scopeKey{}).(Scope)
	return s
}

// L returns the context logger enriched with the request scope and the
// active span's trace_id and span_id.
//
//	logger.L(ctx).Info("invoice created", zap.String("invoice_id", id))
func L(ctx context.Context) *zap.Logger {
	return enrich(ctx, FromContext(ctx))
}

// With enriches an explicit logger the same way L does. Services that receive
// their logger at construction use it to keep scope fields on every line.
func With(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return L(ctx)
	}
	return enrich(ctx, logger)
}

func enrich(ctx context.Context, l *zap.Logger) *zap.Logger {
	fields := ScopeFrom(ctx).fields()
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}
