// Package api serves recommendations over HTTP and defines the wire types
// shared by the daemon and the CLI's --json output.
//
// # Routes
//
// GET /recommend?movie=&k=: ranked, enriched recommendations. The same
// handler is mounted at /api/recommend.
//
// GET /api/movies?q=&limit=: titles from the movie list, optionally filtered
// by a case-insensitive substring.
//
// GET /api/health: liveness plus catalog size.
//
// GET /metrics: Prometheus exposition.
//
// # Errors
//
// Failures are JSON objects with an "error" message and a "kind" label taken
// from services.Kind. Unknown titles answer 404 with close-match suggestions;
// bad parameters answer 400.
//
// # Middleware
//
// Every request gets an X-Request-ID (reused when the client supplies one)
// that flows into engine logs. Optional bearer auth and per-IP rate limiting
// guard everything except /metrics.
package api
