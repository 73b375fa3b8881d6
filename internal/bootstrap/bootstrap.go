package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"cinematch/internal/artifact"
	"cinematch/internal/config"
	"cinematch/internal/logging"
	"cinematch/internal/recommend"
	"cinematch/internal/similarity"
	"cinematch/internal/tmdb"
	"cinematch/internal/tmdbcache"
)

// Runtime holds the long-lived pieces built from a config.
type Runtime struct {
	Store   *similarity.Store
	Engine  *recommend.Engine
	Breaker *tmdb.BreakerClient
	Cache   *tmdbcache.Store
}

// Option customizes Build.
type Option func(*options)

type options struct {
	httpClient *http.Client
}

// WithHTTPClient overrides the HTTP client used for TMDB and artifact downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// Build loads the model artifact and wires the engine. The caller owns the
// returned Runtime and must Close it.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	store, err := LoadStore(ctx, cfg, logger, opts...)
	if err != nil {
		return nil, err
	}

	clientOpts := []tmdb.Option{
		tmdb.WithTimeout(cfg.TMDBRequestTimeout()),
		tmdb.WithLanguage(cfg.TMDB.Language),
		tmdb.WithRateLimit(cfg.TMDB.RequestsPerSecond, cfg.TMDB.Burst),
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, tmdb.WithHTTPClient(o.httpClient))
	}
	client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, clientOpts...)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Store: store}
	var metadata tmdb.API = client
	if cfg.TMDB.CircuitBreaker {
		rt.Breaker = tmdb.NewBreakerClient(metadata, tmdb.DefaultBreakerSettings(), logger)
		metadata = rt.Breaker
	}
	if cfg.MetadataCache.Enabled {
		cache, err := tmdbcache.Open(ctx, cfg.MetadataCache.Path)
		if err != nil {
			return nil, fmt.Errorf("open metadata cache: %w", err)
		}
		rt.Cache = cache
		metadata = tmdbcache.NewCachedClient(metadata, cache, cfg.MetadataCacheTTL(), logger)
	}

	imageBase, placeholder := cfg.TMDB.ImageBaseURL, cfg.TMDB.PlaceholderURL
	engine, err := recommend.New(store, metadata,
		recommend.WithWindow(cfg.Recommend.Window),
		recommend.WithLookupTimeout(cfg.TMDBRequestTimeout()),
		recommend.WithConcurrency(cfg.Recommend.Concurrency),
		recommend.WithLogger(logger),
		recommend.WithPosterURL(func(path string) string {
			return tmdb.PosterURL(imageBase, path, placeholder)
		}),
	)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.Engine = engine

	logger.Info("recommendation engine ready",
		logging.Int("movies", store.Len()),
		logging.Int("window", engine.Window()),
		logging.Bool("circuit_breaker", rt.Breaker != nil),
		logging.Bool("metadata_cache", rt.Cache != nil),
	)
	return rt, nil
}

// LoadStore ensures the similarity matrix exists locally, downloading it when
// a URL is configured, and loads the store.
func LoadStore(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*similarity.Store, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	dlOpts := []artifact.Option{
		artifact.WithTimeout(cfg.ModelDownloadTimeout()),
		artifact.WithLogger(logger),
	}
	if o.httpClient != nil {
		dlOpts = append(dlOpts, artifact.WithHTTPClient(o.httpClient))
	}
	if _, err := artifact.NewDownloader(dlOpts...).Ensure(ctx, cfg.Model.SimilarityURL, cfg.Model.SimilarityPath); err != nil {
		return nil, err
	}
	store, err := similarity.Load(cfg.Model.MoviesPath, cfg.Model.SimilarityPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	return store, nil
}

// CircuitState reports the breaker state, or "" when the breaker is disabled.
func (r *Runtime) CircuitState() string {
	if r == nil || r.Breaker == nil {
		return ""
	}
	return r.Breaker.State().String()
}

// Close releases the metadata cache.
func (r *Runtime) Close() error {
	if r == nil || r.Cache == nil {
		return nil
	}
	return r.Cache.Close()
}
