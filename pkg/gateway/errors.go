package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrSessionExpired is returned when a 401 could not be recovered by a
	// token refresh. The session hook has already fired and tokens are gone.
	ErrSessionExpired = errors.New("session expired")

	// ErrNotAuthenticated is returned when an authenticated endpoint is
	// called without an access token.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrUnreachable wraps transport failures (DNS, refused, timeouts).
	ErrUnreachable = errors.New("server unreachable")
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error %d: %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// AsAPIError checks if an error is an APIError and returns it.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	ae, ok := AsAPIError(err)
	return ok && ae.Status == status
}

// transient reports whether a request may succeed if sent again.
func transient(err error) bool {
	if errors.Is(err, ErrUnreachable) {
		return true
	}
	ae, ok := AsAPIError(err)
	return ok && ae.Status >= 500
}
