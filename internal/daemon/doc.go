// Package daemon assembles the outbox services into a single long-running
// process with a lock file guarding against concurrent instances.
package daemon
