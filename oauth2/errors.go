package oauth2

import (
	"errors"
	"net/url"
)

// ErrorCode is a wire-level OAuth 2.0 error code, as delivered in the
// "error" parameter of an error redirect or JSON error body.
type ErrorCode string

// Error codes recognized by the authorization endpoint (RFC 6749 section 4.1.2.1).
const (
	ErrAccessDenied            ErrorCode = "access_denied"
	ErrInvalidRequest          ErrorCode = "invalid_request"
	ErrInvalidScope            ErrorCode = "invalid_scope"
	ErrServerError             ErrorCode = "server_error"
	ErrTemporarilyUnavailable  ErrorCode = "temporarily_unavailable"
	ErrUnauthorizedClient      ErrorCode = "unauthorized_client"
	ErrUnsupportedResponseType ErrorCode = "unsupported_response_type"
)

// Error codes recognized by the token endpoint (RFC 6749 section 5.2).
// invalid_request, invalid_scope, unauthorized_client and server_error are
// shared with the authorization endpoint set above.
const (
	ErrInvalidClient        ErrorCode = "invalid_client"
	ErrInvalidGrant         ErrorCode = "invalid_grant"
	ErrUnsupportedGrantType ErrorCode = "unsupported_grant_type"
)

// Error is a protocol-level flow failure. Every validation failure in the
// request processors is one of these; anything else that surfaces from a
// grantor degrades to server_error so internal detail never reaches the
// wire. The JSON shape matches the token endpoint error body.
type Error struct {
	Code        ErrorCode `json:"error"`
	Description string    `json:"error_description,omitempty"`
}

// NewError creates a protocol error with the given code and human-readable
// description.
func NewError(code ErrorCode, description string) *Error {
	return &Error{Code: code, Description: description}
}

func (e *Error) Error() string {
	if e.Description == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Description
}

// Values renders the error as redirect parameters.
func (e *Error) Values() url.Values {
	values := url.Values{}
	values.Set("error", string(e.Code))
	if e.Description != "" {
		values.Set("error_description", e.Description)
	}
	return values
}

// ErrorFrom maps any failure to a protocol error. Typed protocol errors
// pass through unchanged; everything else becomes server_error with a
// generic description, keeping internal failure detail off the wire.
// The caller is expected to log the original error before degrading.
func ErrorFrom(err error) *Error {
	var protoErr *Error
	if errors.As(err, &protoErr) {
		return protoErr
	}
	return NewError(ErrServerError, "Internal server error.")
}
