package tmdbcache

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"cinematch/internal/logging"
	"cinematch/internal/textutil"
	"cinematch/internal/tmdb"
)

const (
	opSearch  = "search"
	opDetails = "details"
	opCredits = "credits"
)

// CachedClient serves TMDB lookups from the Store before falling back to next.
type CachedClient struct {
	next   tmdb.API
	store  *Store
	ttl    time.Duration
	logger *slog.Logger
}

var _ tmdb.API = (*CachedClient)(nil)

// NewCachedClient decorates next with store. Entries older than ttl are refetched.
func NewCachedClient(next tmdb.API, store *Store, ttl time.Duration, logger *slog.Logger) *CachedClient {
	return &CachedClient{
		next:   next,
		store:  store,
		ttl:    ttl,
		logger: logging.NewComponentLogger(logger, "tmdbcache"),
	}
}

// SearchMovie implements tmdb.API. Empty result sets are not cached.
func (c *CachedClient) SearchMovie(ctx context.Context, query string) (*tmdb.SearchResponse, error) {
	key := textutil.Fold(query)
	var cached tmdb.SearchResponse
	if c.lookup(ctx, opSearch, key, &cached) {
		return &cached, nil
	}
	resp, err := c.next.SearchMovie(ctx, query)
	if err != nil {
		return nil, err
	}
	if resp != nil && len(resp.Results) > 0 {
		c.remember(ctx, opSearch, key, query, resp)
	}
	return resp, nil
}

// GetMovieDetails implements tmdb.API.
func (c *CachedClient) GetMovieDetails(ctx context.Context, movieID int64) (*tmdb.MovieDetails, error) {
	key := strconv.FormatInt(movieID, 10)
	var cached tmdb.MovieDetails
	if c.lookup(ctx, opDetails, key, &cached) {
		return &cached, nil
	}
	details, err := c.next.GetMovieDetails(ctx, movieID)
	if err != nil {
		return nil, err
	}
	if details != nil {
		c.remember(ctx, opDetails, key, details.Title, details)
	}
	return details, nil
}

// GetMovieCredits implements tmdb.API.
func (c *CachedClient) GetMovieCredits(ctx context.Context, movieID int64) (*tmdb.Credits, error) {
	key := strconv.FormatInt(movieID, 10)
	var cached tmdb.Credits
	if c.lookup(ctx, opCredits, key, &cached) {
		return &cached, nil
	}
	credits, err := c.next.GetMovieCredits(ctx, movieID)
	if err != nil {
		return nil, err
	}
	if credits != nil {
		c.remember(ctx, opCredits, key, "", credits)
	}
	return credits, nil
}

func (c *CachedClient) lookup(ctx context.Context, operation, key string, out any) bool {
	found, err := c.store.Get(ctx, operation, key, c.ttl, out)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, c.logger), "metadata cache read failed", "tmdbcache_read_failed",
			logging.String("operation", operation),
			logging.String("key", key),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run 'cinematch cache clear' if the cache is corrupt"),
			logging.String(logging.FieldImpact, "lookup served from TMDB instead of cache"),
		)
		return false
	}
	if found {
		cacheHits.WithLabelValues(operation).Inc()
		c.logger.Debug("metadata cache hit", logging.String("operation", operation), logging.String("key", key))
	} else {
		cacheMisses.WithLabelValues(operation).Inc()
	}
	return found
}

func (c *CachedClient) remember(ctx context.Context, operation, key, title string, value any) {
	// Store writes must not be cut short by the per-call deadline of the lookup
	// that produced them.
	writeCtx := context.WithoutCancel(ctx)
	if err := c.store.Put(writeCtx, operation, key, title, value); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, c.logger), "metadata cache write failed", "tmdbcache_write_failed",
			logging.String("operation", operation),
			logging.String("key", key),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check free space and permissions on the cache database"),
			logging.String(logging.FieldImpact, "the next identical lookup will call TMDB again"),
		)
	}
}
