package client

import (
	"errors"
	"fmt"
)

// ErrSessionExpired is returned when the backend answers 401
var ErrSessionExpired = errors.New("Session expired")

// networkMessage is the fixed text shown when the backend cannot be reached
const networkMessage = "cannot reach server: please check that the API is running and reachable"

// APIError is returned for any non-2xx response other than 401
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Body)
}

// NetworkError is returned when the request never produced an HTTP response
type NetworkError struct {
	Method string
	Path   string
	Cause  error
}

func (e *NetworkError) Error() string {
	return networkMessage
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// IsStatus reports whether err is an APIError with the given status.
// A 401 is reported through ErrSessionExpired and matches status 401 too.
func IsStatus(err error, status int) bool {
	if status == 401 && errors.Is(err, ErrSessionExpired) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == status
	}
	return false
}

// IsSessionExpired reports whether err stems from a 401
func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}

// IsNetwork reports whether err is a transport-level failure
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

func asAPIError(err error, target **APIError) bool {
	return errors.As(err, target)
}
