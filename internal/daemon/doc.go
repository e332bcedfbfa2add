// Package daemon wires the upload manager, network monitor and notification
// service into a single long-running process guarded by a file lock, and
// exposes the control surface consumed by the IPC layer.
package daemon
