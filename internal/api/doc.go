// Package api defines the transport-friendly representations of upload
// records, notifications and daemon status shared by the IPC surface and the
// CLI. Conversion from internal types happens here so wire payloads stay
// stable when internals change.
package api
