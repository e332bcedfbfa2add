// Package transfer implements the resumable transfer session: one file's
// byte-range transmission to the object store, pausable between chunks and
// resumable from the store's committed offset.
package transfer
