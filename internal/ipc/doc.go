// Package ipc exposes the daemon over JSON-RPC Unix sockets and ships the
// matching client used by the CLI.
//
// It owns socket lifecycle management and the request/response DTOs shared
// between both ends. The server embeds the daemon; the client wraps one typed
// method per RPC so CLI commands fail fast when the daemon is offline.
package ipc
