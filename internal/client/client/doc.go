// Package client talks to the contactbook REST API.
//
// HTTPClient keeps the session token returned by Login in memory and sends
// it as a bearer token on every protected call. Error responses are decoded
// into *APIError, which unwraps to the shared sentinels in internal/common
// (ErrorValidation, ErrorUnauthorized, ErrorNotFound, ErrorAlreadyExists,
// ErrorInternal), so callers can match them with errors.Is. Transport
// failures are reported as ErrUnavailable.
package client
