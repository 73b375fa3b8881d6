package tmdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"cinematch/internal/logging"
	"cinematch/internal/services"
)

// BreakerSettings tunes the circuit breaker around the TMDB API.
type BreakerSettings struct {
	Name string
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold uint32
	// OpenTimeout is how long the circuit stays open before a trial request.
	OpenTimeout time.Duration
	// HalfOpenRequests is the number of trial requests allowed while half-open.
	HalfOpenRequests uint32
}

// DefaultBreakerSettings returns the production breaker tuning.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:             "tmdb-api",
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		HalfOpenRequests: 1,
	}
}

// BreakerClient wraps an API with a circuit breaker. While the circuit is open
// every call fails immediately with services.ErrTransport.
type BreakerClient struct {
	next   API
	cb     *gobreaker.CircuitBreaker[any]
	name   string
	logger *slog.Logger
}

var _ API = (*BreakerClient)(nil)

// NewBreakerClient wraps next with a circuit breaker.
func NewBreakerClient(next API, settings BreakerSettings, logger *slog.Logger) *BreakerClient {
	defaults := DefaultBreakerSettings()
	if settings.Name == "" {
		settings.Name = defaults.Name
	}
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = defaults.FailureThreshold
	}
	if settings.OpenTimeout <= 0 {
		settings.OpenTimeout = defaults.OpenTimeout
	}
	if settings.HalfOpenRequests == 0 {
		settings.HalfOpenRequests = defaults.HalfOpenRequests
	}
	logger = logging.NewComponentLogger(logger, "tmdb-breaker")
	breakerState.WithLabelValues(settings.Name).Set(0)

	threshold := settings.FailureThreshold
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.HalfOpenRequests,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Caller cancellation, bad input and missing records say nothing about the API's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) ||
				errors.Is(err, services.ErrValidation) || errors.Is(err, services.ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			breakerState.WithLabelValues(name).Set(stateToFloat(to))
			if to == gobreaker.StateOpen {
				logging.WarnWithContext(logger, "tmdb circuit opened", "tmdb_circuit_open",
					logging.String("from", from.String()),
					logging.Duration("retry_after", settings.OpenTimeout),
					logging.String(logging.FieldErrorHint, "check TMDB availability and api key"),
					logging.String(logging.FieldImpact, "recommendations use placeholder metadata until TMDB recovers"),
				)
				return
			}
			logger.Info("tmdb circuit state changed", logging.String("from", from.String()), logging.String("to", to.String()))
		},
	})
	return &BreakerClient{next: next, cb: cb, name: settings.Name, logger: logger}
}

// State reports the current breaker state.
func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}

// SearchMovie implements API.
func (b *BreakerClient) SearchMovie(ctx context.Context, query string) (*SearchResponse, error) {
	return execute[SearchResponse](b, "search", func() (any, error) {
		return b.next.SearchMovie(ctx, query)
	})
}

// GetMovieDetails implements API.
func (b *BreakerClient) GetMovieDetails(ctx context.Context, movieID int64) (*MovieDetails, error) {
	return execute[MovieDetails](b, "details", func() (any, error) {
		return b.next.GetMovieDetails(ctx, movieID)
	})
}

// GetMovieCredits implements API.
func (b *BreakerClient) GetMovieCredits(ctx context.Context, movieID int64) (*Credits, error) {
	return execute[Credits](b, "credits", func() (any, error) {
		return b.next.GetMovieCredits(ctx, movieID)
	})
}

func execute[T any](b *BreakerClient, operation string, fn func() (any, error)) (*T, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			breakerRejections.WithLabelValues(b.name).Inc()
			return nil, services.Wrap(services.ErrTransport, component, operation, "circuit open", err)
		}
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, services.Wrap(services.ErrTransport, component, operation, fmt.Sprintf("unexpected result type %T", result), nil)
	}
	return typed, nil
}
