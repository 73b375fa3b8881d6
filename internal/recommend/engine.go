package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"cinematch/internal/logging"
	"cinematch/internal/services"
	"cinematch/internal/similarity"
	"cinematch/internal/tmdb"
)

const (
	defaultWindow         = 10
	defaultLookupTimeout  = 10 * time.Second
	defaultConcurrency    = 1
	defaultImageBaseURL   = "https://image.tmdb.org/t/p/w500"
	defaultPlaceholderURL = "https://via.placeholder.com/200x300?text=No+Image"
)

// Ranker is the read side of a similarity store.
type Ranker interface {
	Rank(title string) ([]similarity.Ranked, error)
	Title(i int) (string, bool)
}

// MetadataClient looks up TMDB metadata for a candidate.
type MetadataClient interface {
	SearchMovie(ctx context.Context, query string) (*tmdb.SearchResponse, error)
	GetMovieDetails(ctx context.Context, movieID int64) (*tmdb.MovieDetails, error)
	GetMovieCredits(ctx context.Context, movieID int64) (*tmdb.Credits, error)
}

// Engine produces enriched recommendations. It is safe for concurrent use.
type Engine struct {
	store         Ranker
	client        MetadataClient
	window        int
	lookupTimeout time.Duration
	concurrency   int
	poster        func(posterPath string) string
	logger        *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithWindow sets how many ranked candidates (after the self-match) are kept.
func WithWindow(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.window = n
		}
	}
}

// WithLookupTimeout bounds each individual metadata call.
func WithLookupTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.lookupTimeout = d
		}
	}
}

// WithConcurrency sets how many candidates are enriched in parallel.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithPosterURL sets how a TMDB poster path becomes a URL. The function must
// return the placeholder image for an empty path.
func WithPosterURL(fn func(posterPath string) string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.poster = fn
		}
	}
}

// New constructs an Engine.
func New(store Ranker, client MetadataClient, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, errors.New("recommend: similarity store required")
	}
	if client == nil {
		return nil, errors.New("recommend: metadata client required")
	}
	e := &Engine{
		store:         store,
		client:        client,
		window:        defaultWindow,
		lookupTimeout: defaultLookupTimeout,
		concurrency:   defaultConcurrency,
		poster: func(path string) string {
			return tmdb.PosterURL(defaultImageBaseURL, path, defaultPlaceholderURL)
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.NewComponentLogger(e.logger, "recommend")
	return e, nil
}

// Window returns the maximum number of recommendations per request.
func (e *Engine) Window() int { return e.window }

// Recommend returns exactly k enriched recommendations for title, most similar
// first. An unknown title returns an error wrapping services.ErrLookup and no
// metadata calls are made. k outside [1, window], or fewer than k candidates,
// returns services.ErrValidation.
func (e *Engine) Recommend(ctx context.Context, title string, k int) ([]Result, error) {
	start := time.Now()
	results, err := e.recommend(ctx, title, k)
	recommendDuration.WithLabelValues(services.Kind(err)).Observe(time.Since(start).Seconds())
	return results, err
}

func (e *Engine) recommend(ctx context.Context, title string, k int) ([]Result, error) {
	if k < 1 || k > e.window {
		return nil, services.Wrap(services.ErrValidation, "recommend", "validate",
			fmt.Sprintf("count must be between 1 and %d, got %d", e.window, k), nil)
	}
	if _, ok := services.RequestIDFromContext(ctx); !ok {
		ctx = services.WithRequestID(ctx, uuid.NewString())
	}
	ctx = services.WithQuery(ctx, title)
	logger := logging.WithContext(ctx, e.logger)

	ranked, err := e.store.Rank(title)
	if err != nil {
		logger.Debug("title lookup failed", logging.Error(err))
		return nil, err
	}

	// Position 0 is the self-match.
	candidates := ranked[min(1, len(ranked)):min(e.window+1, len(ranked))]
	if len(candidates) < k {
		return nil, services.Wrap(services.ErrValidation, "recommend", "rank",
			fmt.Sprintf("only %d candidates available, %d requested", len(candidates), k), nil)
	}
	candidates = candidates[:k]

	results := make([]Result, k)
	if e.concurrency <= 1 {
		for i, cand := range candidates {
			results[i] = e.enrich(ctx, i+1, cand)
		}
	} else {
		sem := make(chan struct{}, e.concurrency)
		var wg sync.WaitGroup
		for i, cand := range candidates {
			wg.Add(1)
			sem <- struct{}{}
			go func() {
				defer wg.Done()
				defer func() { <-sem }()
				results[i] = e.enrich(ctx, i+1, cand)
			}()
		}
		wg.Wait()
	}

	if err := ctx.Err(); err != nil {
		marker := services.ErrTransport
		if errors.Is(err, context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		return nil, services.Wrap(marker, "recommend", "enrich", "request cancelled", err)
	}

	degraded := 0
	for _, res := range results {
		if res.Fallback != FallbackNone {
			degraded++
		}
	}
	logger.Info("recommendations ready",
		logging.Int("count", k),
		logging.Int("degraded", degraded),
	)
	return results, nil
}

// enrich never fails: lookup errors produce a placeholder result.
func (e *Engine) enrich(ctx context.Context, rank int, cand similarity.Ranked) Result {
	ctx = services.WithRank(ctx, rank)
	logger := logging.WithContext(ctx, e.logger)
	title, _ := e.store.Title(cand.Index)

	finish := func(res Result, outcome string) Result {
		res.Rank = rank
		res.Score = cand.Score
		enrichmentTotal.WithLabelValues(outcome).Inc()
		return res
	}

	var search *tmdb.SearchResponse
	err := e.call(ctx, func(callCtx context.Context) (err error) {
		search, err = e.client.SearchMovie(callCtx, title)
		return err
	})
	if err == nil && (search == nil || len(search.Results) == 0) {
		err = services.Wrap(services.ErrNotFound, "recommend", "search", fmt.Sprintf("no tmdb results for %q", title), nil)
	}
	if errors.Is(err, services.ErrNotFound) {
		logging.WarnWithContext(logger, "no tmdb results for candidate", "tmdb_no_results",
			logging.String("title", title),
			logging.Error(err),
			logging.String("error_kind", services.Kind(err)),
			logging.String(logging.FieldErrorHint, "the movie list title may differ from TMDB's"),
			logging.String(logging.FieldImpact, "candidate shown without metadata"),
		)
		res := placeholder(e.poster(""), title, FallbackSearch)
		res.Warning = NoResultsWarning(title)
		return finish(res, outcomeNoResults)
	}
	if err != nil {
		logging.ErrorWithContext(logger, "tmdb search failed", "tmdb_search_failed",
			logging.String("title", title),
			logging.Error(err),
			logging.String("error_kind", services.Kind(err)),
			logging.String(logging.FieldErrorHint, "check network access and tmdb.api_key"),
		)
		res := placeholder(e.poster(""), title, FallbackSearch)
		res.Warning = MsgFetchFailed
		return finish(res, outcomeSearchFailed)
	}
	movieID := search.Results[0].ID

	var details *tmdb.MovieDetails
	var credits *tmdb.Credits
	err = e.call(ctx, func(callCtx context.Context) (err error) {
		details, err = e.client.GetMovieDetails(callCtx, movieID)
		return err
	})
	if err == nil && details == nil {
		err = services.Wrap(services.ErrTransport, "recommend", "details", "empty details response", nil)
	}
	if err == nil {
		err = e.call(ctx, func(callCtx context.Context) (err error) {
			credits, err = e.client.GetMovieCredits(callCtx, movieID)
			return err
		})
	}
	if err != nil {
		logging.WarnWithContext(logger, "tmdb details lookup failed", "tmdb_details_failed",
			logging.String("title", title),
			logging.Int64("tmdb_id", movieID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "retry later; TMDB may be rate limiting or unavailable"),
			logging.String(logging.FieldImpact, "candidate shown as Unknown with placeholder metadata"),
		)
		res := placeholder(e.poster(""), Unknown, FallbackDetails)
		res.TMDBID = movieID
		return finish(res, outcomeDetailsFailed)
	}

	logger.Debug("candidate enriched", logging.String("title", title), logging.Int64("tmdb_id", movieID))
	return finish(fromMetadata(details, credits, e.poster), outcomeOK)
}

func (e *Engine) call(ctx context.Context, fn func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
	defer cancel()
	return fn(callCtx)
}
