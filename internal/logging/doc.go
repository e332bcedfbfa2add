// Package logging builds slog loggers with console and JSON output, shared
// attribute helpers, and sampling for high-frequency progress events.
package logging
