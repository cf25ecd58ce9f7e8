// Package apierr defines the failure taxonomy for upstream CRM access.
// Both error kinds are fatal for a run; the CLI surfaces them and exits
// non-zero. Nothing here is retried.
package apierr

import (
	"errors"
	"fmt"
)

// AuthError is a failed OAuth token exchange: a non-success status from
// the token endpoint or a response missing the expected token fields.
type AuthError struct {
	Service    string
	StatusCode int
	Reason     string
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: token exchange failed: status %d: %s", e.Service, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("%s: token exchange failed: %s", e.Service, e.Reason)
}

// NewAuthError builds an AuthError for the named service. statusCode is 0
// when the failure was not an HTTP status (e.g. a missing response field).
func NewAuthError(service string, statusCode int, reason string) *AuthError {
	return &AuthError{Service: service, StatusCode: statusCode, Reason: reason}
}

// IsAuthError reports whether err chains to an AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// FetchError is a non-200 response from a data endpoint.
type FetchError struct {
	Service    string
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: fetch %s: status %d: %s", e.Service, e.Endpoint, e.StatusCode, e.Body)
}

// NewFetchError builds a FetchError carrying the upstream status and a
// body excerpt for the diagnostic message.
func NewFetchError(service, endpoint string, statusCode int, body string) *FetchError {
	const maxBody = 512
	if len(body) > maxBody {
		body = body[:maxBody]
	}
	return &FetchError{Service: service, Endpoint: endpoint, StatusCode: statusCode, Body: body}
}

// IsFetchError reports whether err chains to a FetchError, returning it
// when present so callers can read the status code.
func IsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
