// Package notifications delivers upload lifecycle events via pluggable sinks.
//
// Events fan out to a bounded notification log persisted in SQLite and, when a
// topic is configured in config.toml, to ntfy. The fan-out degrades gracefully:
// a missing sink is skipped, and a failing sink never blocks delivery to the
// others. Enumerated event types cover the upload milestones so the manager can
// emit consistent, user-friendly messages without duplicating HTTP glue.
//
// Extend this package if you need alternative transports; manager code depends
// only on the simple Publisher interface.
package notifications
