// Package main hosts the cinematch CLI entrypoint and command graph.
//
// The Cobra-based command tree covers recommendations, catalog browsing,
// model artifact management, the metadata cache, readiness checks,
// configuration scaffolding and a foreground "serve" mode that runs the HTTP
// API. It centralizes configuration resolution and logging setup so
// subcommands can focus on output instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
