// Package tmdb provides the minimal TMDB API client used to enrich
// recommendations with posters, ratings, genres and cast.
//
// It authenticates requests and exposes movie search, movie details and movie
// credits. Every failure is tagged with a services marker (ErrTransport or
// ErrTimeout) so callers can classify it without string matching. A token
// bucket limiter keeps the client under the API's request budget, and
// BreakerClient wraps any API with a circuit breaker so an unavailable service
// fails fast. Options allow tests to supply custom HTTP clients without
// modifying production code.
package tmdb
