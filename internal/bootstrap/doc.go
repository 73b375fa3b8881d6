// Package bootstrap assembles the recommendation runtime from configuration:
// it makes sure the model artifact is present, loads the similarity store, and
// layers the TMDB client with rate limiting, the optional circuit breaker and
// the optional SQLite metadata cache before handing it to the engine.
//
// Both the daemon and the CLI build their engine through Build so the two
// entry points stay behaviourally identical.
package bootstrap
