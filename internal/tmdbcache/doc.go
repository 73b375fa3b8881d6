// Package tmdbcache persists TMDB lookups in SQLite so repeated
// recommendations for popular titles do not spend API budget.
//
// CachedClient decorates any tmdb.API: successful search, details and credits
// responses are stored as JSON keyed by operation and query, and served until
// they are older than the configured TTL. Cache failures are logged and never
// surface to callers; the decorated client is always the source of truth.
package tmdbcache
