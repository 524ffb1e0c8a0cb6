package api

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// NetworkError indicates the request never produced a response: the server
// was unreachable, the connection dropped, or the deadline passed.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error (%s): %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError indicates the server answered with a non-2xx status.
type ServerError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error (%s): status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("server error (%s): status %d: %s", e.Op, e.StatusCode, e.Message)
}

// AuthError indicates that the session token was rejected (HTTP 401).
type AuthError struct {
	ServerError
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): session expired or invalid", e.Op)
}

// ValidationError indicates a malformed preferences payload, detected either
// locally before sending or reported by the server.
type ValidationError struct {
	// Fields maps a field name to a human-readable problem.
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation error"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation error: " + strings.Join(parts, "; ")
}

// IsNetworkError reports whether err (or any error in its chain) is a NetworkError.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsServerError reports whether err (or any error in its chain) is a
// ServerError, including AuthError.
func IsServerError(err error) bool {
	var srvErr *ServerError
	var authErr *AuthError
	return errors.As(err, &srvErr) || errors.As(err, &authErr)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsValidationError reports whether err (or any error in its chain) is a
// ValidationError.
func IsValidationError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// AsValidationError extracts a ValidationError from err's chain.
func AsValidationError(err error) (*ValidationError, bool) {
	var valErr *ValidationError
	ok := errors.As(err, &valErr)
	return valErr, ok
}
