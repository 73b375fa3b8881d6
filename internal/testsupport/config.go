package testsupport

import (
	"path/filepath"
	"testing"

	"cinematch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options. The metadata
// cache is disabled unless WithMetadataCache is passed.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.TMDB.APIKey = "test"
	cfgVal.TMDB.RequestsPerSecond = 0
	cfgVal.TMDB.CircuitBreaker = false
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Paths.APIRateLimit = 0
	cfgVal.Model.MoviesPath = filepath.Join(cfgVal.Paths.DataDir, "movie_list.json")
	cfgVal.Model.SimilarityPath = filepath.Join(cfgVal.Paths.DataDir, "similarity.bin")
	cfgVal.MetadataCache.Enabled = false
	cfgVal.MetadataCache.Path = filepath.Join(cfgVal.Paths.DataDir, "metadata.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithTMDBKey sets the TMDB API key on the test config.
func WithTMDBKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.APIKey = key
	}
}

// WithTMDBBaseURL points the TMDB client at a test server.
func WithTMDBBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.BaseURL = url
	}
}

// WithMetadataCache enables the SQLite metadata cache under the temp data dir.
func WithMetadataCache() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.MetadataCache.Enabled = true
	}
}

// WithAPIToken enables bearer auth on the HTTP API.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIToken = token
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
