package main

import (
	"context"
	"errors"
	"testing"

	"cinematch/internal/services"
)

func TestRunRequiresAPIKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TMDB_API_KEY", "")
	t.Chdir(t.TempDir())

	err := run(context.Background(), "")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
