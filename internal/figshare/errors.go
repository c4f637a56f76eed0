package figshare

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the Uploader.
var (
	// ErrNoArticle indicates an operation needs an article id but none has
	// been created yet.
	ErrNoArticle = errors.New("no article has been created")

	// ErrNetwork indicates the request could not be sent or its response
	// could not be read.
	ErrNetwork = errors.New("network error communicating with figshare")

	// ErrInvalidResponse indicates a response body that is not a JSON object.
	ErrInvalidResponse = errors.New("invalid response from figshare")

	// ErrMissingField indicates a response lacks a field the client relies on.
	ErrMissingField = errors.New("figshare response missing field")

	// ErrInvalidArticle indicates an article description that cannot be
	// published.
	ErrInvalidArticle = errors.New("invalid article")
)

// APIError is returned when figshare answers with an HTTP error status.
type APIError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("figshare API error (%s, status %d)", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("figshare API error (%s, status %d): %s", e.Operation, e.StatusCode, e.Body)
}

// IsAuthError returns true if the error indicates the OAuth signature or
// credentials were rejected.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

// IsNotFound returns true if the error indicates the article does not exist.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}
