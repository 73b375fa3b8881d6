package testsupport

import (
	"context"
	"testing"

	"cinematch/internal/config"
	"cinematch/internal/tmdbcache"
)

// MustOpenCache opens the metadata cache for tests and registers cleanup.
func MustOpenCache(t testing.TB, cfg *config.Config) *tmdbcache.Store {
	t.Helper()

	store, err := tmdbcache.Open(context.Background(), cfg.MetadataCache.Path)
	if err != nil {
		t.Fatalf("open metadata cache: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
