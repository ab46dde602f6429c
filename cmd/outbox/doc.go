// Package main hosts the outbox CLI entrypoint and command graph.
//
// The Cobra-based command tree covers queue inspection and maintenance,
// media ingestion, storage reporting, and configuration scaffolding. It
// works directly against the outbox store; the daemon lock only guards the
// background sweep loop, so one-shot commands are safe alongside a running
// daemon.
package main
