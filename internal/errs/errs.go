// Package errs defines the service error taxonomy. Every error the REST
// surface can produce carries an HTTP status; the router maps a ServiceError
// to a {code, message} body with that status, and anything else to a generic
// 500 so internal details never reach a client.
package errs

import (
	"errors"
	"net/http"
)

// ServiceError is the base error type for all client-visible failures.
type ServiceError struct {
	Status  int    // HTTP status mirrored into the response body's code field
	Message string // human-readable message returned to the client
}

func (e *ServiceError) Error() string { return e.Message }

// newError builds a ServiceError with the given status, using fallback as
// the message when none is supplied.
func newError(status int, fallback string, msg ...string) *ServiceError {
	m := fallback
	if len(msg) > 0 && msg[0] != "" {
		m = msg[0]
	}
	return &ServiceError{Status: status, Message: m}
}

// Request reports malformed input: bad bodies, extra path tokens, unparsable
// WHERE clauses.
func Request(msg ...string) *ServiceError {
	return newError(http.StatusBadRequest, "Request error", msg...)
}

// NotFound reports a missing collection or entry.
func NotFound(msg ...string) *ServiceError {
	return newError(http.StatusNotFound, "Resource not found", msg...)
}

// Conflict reports a duplicate identity on registration.
func Conflict(msg ...string) *ServiceError {
	return newError(http.StatusConflict, "Resource conflict", msg...)
}

// Authorization reports that authentication is required but absent.
func Authorization(msg ...string) *ServiceError {
	return newError(http.StatusUnauthorized, "Unauthorized", msg...)
}

// Credential reports an authorization denial: invalid tokens, failed logins
// and access-rule rejections.
func Credential(msg ...string) *ServiceError {
	return newError(http.StatusForbidden, "Forbidden", msg...)
}

// As extracts a ServiceError from an error chain.
func As(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
