package tmdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"cinematch/internal/logging"
	"cinematch/internal/services"
	"cinematch/internal/tmdb"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	breaker := tmdb.NewBreakerClient(client, tmdb.BreakerSettings{
		Name:             "test-open",
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
	}, logging.NewNop())

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := breaker.SearchMovie(ctx, "Avatar"); !errors.Is(err, services.ErrTransport) {
			t.Fatalf("call %d: expected transport error, got %v", i, err)
		}
	}
	if breaker.State() != gobreaker.StateOpen {
		t.Fatalf("expected open circuit, got %s", breaker.State())
	}

	_, err = breaker.GetMovieDetails(ctx, 1)
	if !errors.Is(err, services.ErrTransport) || !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open-state transport error, got %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("expected open circuit to skip the API, server saw %d requests", got)
	}
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	breaker := tmdb.NewBreakerClient(client, tmdb.BreakerSettings{Name: "test-cancel", FailureThreshold: 1}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := breaker.SearchMovie(ctx, "Avatar"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if breaker.State() != gobreaker.StateClosed {
		t.Fatalf("cancellation must not trip the breaker, state=%s", breaker.State())
	}
	resp, err := breaker.SearchMovie(context.Background(), "Avatar")
	if err != nil {
		t.Fatalf("SearchMovie: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Fatalf("unexpected results %#v", resp.Results)
	}
}

func TestBreakerIgnoresMissingRecords(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	breaker := tmdb.NewBreakerClient(client, tmdb.BreakerSettings{Name: "test-not-found", FailureThreshold: 1, OpenTimeout: time.Minute}, nil)

	for i := 0; i < 3; i++ {
		if _, err := breaker.GetMovieDetails(context.Background(), 7); !errors.Is(err, services.ErrNotFound) {
			t.Fatalf("call %d: expected not-found error, got %v", i, err)
		}
	}
	if breaker.State() != gobreaker.StateClosed {
		t.Fatalf("missing records must not trip the breaker, state=%s", breaker.State())
	}
	if got := hits.Load(); got != 3 {
		t.Fatalf("expected every call to reach the API, server saw %d requests", got)
	}
}
