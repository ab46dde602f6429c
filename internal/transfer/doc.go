// Package transfer runs the outbox state machine. A background loop sweeps
// the pending queue on an interval, attempts delivery with capped retries
// and a fixed backoff schedule, and periodically purges entries whose
// retention window has passed together with their stored media.
//
// State (pending, sending, sent, received, failed) belongs to this package
// once an entry exists; the save pipeline's phase column is never written
// here.
package transfer
