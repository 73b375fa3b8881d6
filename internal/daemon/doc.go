// Package daemon coordinates the long-running cinematch process.
//
// It wires the recommendation runtime and the HTTP API into a single
// lifecycle with flock-based locking to prevent multiple instances on the
// same data directory. Keep orchestration logic here: ranking, enrichment and
// transport live in their own packages while the daemon focuses on startup,
// shutdown and status.
package daemon
