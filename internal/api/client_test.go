package api_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"cinematch/internal/api"
	"cinematch/internal/services"
)

func TestNewClientEmptyBind(t *testing.T) {
	client, err := api.NewClient("", "", time.Second)
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	if client != nil {
		t.Fatal("expected nil client for empty bind")
	}
	if _, err := client.Health(context.Background()); !errors.Is(err, api.ErrAPIUnavailable) {
		t.Fatalf("expected unavailable error from nil client, got %v", err)
	}
}

func TestClientRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t, api.Options{Token: "secret", DefaultCount: 1})
	httpSrv := httptest.NewServer(srv.Handler())
	defer httpSrv.Close()

	client, err := api.NewClient(httpSrv.URL, "secret", 5*time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	health, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Movies != 3 {
		t.Fatalf("unexpected health %+v", health)
	}

	rec, err := client.Recommend(context.Background(), "B", 0)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if rec.Count != 1 || rec.Recommendations[0].Title != "A" {
		t.Fatalf("unexpected recommendations %+v", rec)
	}

	movies, err := client.Movies(context.Background(), "", 2)
	if err != nil {
		t.Fatalf("Movies: %v", err)
	}
	if movies.Total != 2 {
		t.Fatalf("expected 2 movies, got %+v", movies)
	}
}

func TestClientRejectsMissingToken(t *testing.T) {
	srv, _ := newTestServer(t, api.Options{Token: "secret"})
	httpSrv := httptest.NewServer(srv.Handler())
	defer httpSrv.Close()

	client, err := api.NewClient(httpSrv.URL, "", 5*time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = client.Health(context.Background())
	var remote *api.RemoteError
	if !errors.As(err, &remote) || remote.Status != 401 {
		t.Fatalf("expected 401 remote error, got %v", err)
	}
}

func TestClientMapsRemoteErrors(t *testing.T) {
	srv, _ := newTestServer(t, api.Options{})
	httpSrv := httptest.NewServer(srv.Handler())
	defer httpSrv.Close()

	client, err := api.NewClient(httpSrv.URL, "", 5*time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.Recommend(context.Background(), "a", 1)
	if !errors.Is(err, services.ErrLookup) {
		t.Fatalf("expected lookup error, got %v", err)
	}
	var remote *api.RemoteError
	if !errors.As(err, &remote) || len(remote.Response.Suggestions) == 0 || remote.Response.Suggestions[0] != "A" {
		t.Fatalf("expected suggestions in remote error, got %v", err)
	}

	if _, err := client.Recommend(context.Background(), "A", 9); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestClientUnavailable(t *testing.T) {
	httpSrv := httptest.NewServer(nil)
	addr := httpSrv.Listener.Addr().String()
	httpSrv.Close()

	client, err := api.NewClient(addr, "", time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = client.Health(context.Background())
	if !api.IsAPIUnavailable(err) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}
