// Package authclient is a Go client for the poolcare authentication API.
// It manages one session per identity domain (staff, client portal,
// technician portal, platform admin): login, silent session resume,
// token refresh, and logout, with tokens held in a pluggable key-value
// store under domain-disjoint keys.
package authclient

import (
	"errors"
	"fmt"
)

// ErrSessionExpired signals that the domain's refresh token is missing,
// invalid, or expired. The client has already cleared its local session
// when this is returned.
var ErrSessionExpired = errors.New("session expired")

// AuthError is a login failure with a user-displayable message, taken
// from the server response when one is present.
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "authentication failed"
}

// NetworkError wraps a transport-level failure. Resume treats it like an
// invalid session; login surfaces it so the UI can offer a retry.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
