// Package objectstore implements the client side of the backing store's
// resumable upload protocol (session URI negotiation plus byte-range PUTs)
// and defines the error taxonomy shared by the transfer and manager layers.
package objectstore
