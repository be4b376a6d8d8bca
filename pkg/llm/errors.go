package llm

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions. Configuration problems surface
// at the moment of use, not at construction.
var (
	// ErrNoAPIKey is returned when an API key is required but missing.
	ErrNoAPIKey = errors.New("llm: API key required")

	// ErrNoModel is returned when no model is configured.
	ErrNoModel = errors.New("llm: model required")

	// ErrNoURL is returned when no endpoint URL can be resolved.
	ErrNoURL = errors.New("llm: endpoint URL required")

	// ErrStreamClosed is returned when reading from a closed stream.
	ErrStreamClosed = errors.New("llm: stream closed")
)

// APIError represents an error response from a chat API.
type APIError struct {
	// StatusCode is the HTTP status code. Zero when the error came out of
	// an otherwise-successful streaming body.
	StatusCode int

	// Message is the error message from the API.
	Message string

	// Code is the error code (if provided).
	Code string

	// Vendor identifies which vendor returned the error.
	Vendor Vendor
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("llm [%s]: API error %d (%s): %s",
			e.Vendor, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("llm [%s]: API error %d: %s",
		e.Vendor, e.StatusCode, e.Message)
}

// IsRateLimited returns true if this is a rate limit error (HTTP 429).
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == 429
}

// IsUnauthorized returns true if this is an authentication error (HTTP 401).
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == 401
}

// IsServerError returns true if this is a server-side error (HTTP 5xx).
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsRetryable returns true if the request should be retried.
func (e *APIError) IsRetryable() bool {
	return e.IsRateLimited() || e.IsServerError()
}

// VendorError wraps an error with vendor context.
type VendorError struct {
	Vendor Vendor
	Err    error
}

// Error implements the error interface.
func (e *VendorError) Error() string {
	return fmt.Sprintf("llm [%s]: %v", e.Vendor, e.Err)
}

// Unwrap returns the underlying error.
func (e *VendorError) Unwrap() error {
	return e.Err
}

// wrapError wraps an error with vendor context.
func wrapError(vendor Vendor, err error) error {
	if err == nil {
		return nil
	}
	return &VendorError{Vendor: vendor, Err: err}
}
