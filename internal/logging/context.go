package logging

import (
	"context"
	"log/slog"

	"cinematch/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldQuery is the title a recommendation was requested for.
	FieldQuery = "query"
	// FieldRank is the 1-based position of a candidate in the recommendation list.
	FieldRank = "rank"
	// FieldEventType names the machine-readable event behind a WARN/ERROR line.
	FieldEventType = "event_type"
	// FieldErrorHint is a short operator-facing next step.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	if query, ok := services.QueryFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldQuery, query))
	}
	if rank, ok := services.RankFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldRank, rank))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
