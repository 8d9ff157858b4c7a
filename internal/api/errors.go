package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized marks 401/403 responses. The auth collaborator handles
// session recovery; this subsystem only classifies and propagates.
var ErrUnauthorized = errors.New("api: unauthorized")

// APIError is a non-2xx response from the support backend.
type APIError struct {
	Status    int
	Body      string
	RequestID string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: request %s failed with status %d: %s", e.RequestID, e.Status, e.Body)
}

// Unwrap lets callers match authentication failures with errors.Is.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}
