package apns

import "errors"

// Error kinds for a failed send. Callers use errors.Is to distinguish a
// signing failure from a connection failure; a gateway rejection is never
// an error (see Result).
var (
	// ErrCredential means the bearer token could not be signed.
	ErrCredential = errors.New("apns: credential failure")
	// ErrTransport means the connection could not be established or the
	// response stream errored before completion.
	ErrTransport = errors.New("apns: transport failure")
)
