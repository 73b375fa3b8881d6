// Package services defines shared utilities consumed by the recommendation
// engine, the metadata integrations and the HTTP/CLI front ends.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers and candidate ranks
//     for logging and tracing.
//   - Structured error markers plus the Wrap helper that let callers classify
//     failures (lookup miss vs transport failure vs bad configuration) with
//     errors.Is instead of string matching.
//
// Use these helpers when wiring new components so operational behaviour (error
// handling, observability) stays uniform across the module.
package services
