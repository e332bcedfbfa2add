// Package records provides durable persistence for upload records backed by
// SQLite. Records survive daemon restarts; every state transition is written
// through before it is observable.
package records
