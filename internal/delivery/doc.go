// Package delivery sends outbox media to the configured transport
// endpoint. The transfer manager drives it; this package only knows how to
// push a single artifact and report success or failure.
package delivery
