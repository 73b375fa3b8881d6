package services

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	rankKey      contextKey = "rank"
	queryKey     contextKey = "query"
)

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRank annotates context with the 1-based position of the candidate being enriched.
func WithRank(ctx context.Context, rank int) context.Context {
	if rank <= 0 {
		return ctx
	}
	return context.WithValue(ctx, rankKey, rank)
}

// RankFromContext returns the candidate rank if present.
func RankFromContext(ctx context.Context) (int, bool) {
	if v, ok := ctx.Value(rankKey).(int); ok && v > 0 {
		return v, true
	}
	return 0, false
}

// WithQuery annotates context with the title a recommendation was requested for.
func WithQuery(ctx context.Context, title string) context.Context {
	if title == "" {
		return ctx
	}
	return context.WithValue(ctx, queryKey, title)
}

// QueryFromContext returns the recommendation query title if present.
func QueryFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(queryKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
