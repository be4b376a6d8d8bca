package tts

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNoAPIKey is returned when the API key is missing.
	ErrNoAPIKey = errors.New("tts: API key required")

	// ErrNoModel is returned when an engine needs a voice model and none
	// is configured.
	ErrNoModel = errors.New("tts: model required")

	// ErrEngineNotInstalled is returned when a command-line engine's
	// executable is not on PATH.
	ErrEngineNotInstalled = errors.New("tts: engine executable not installed")

	// ErrUnsupportedLanguage is returned for a language outside an
	// engine's allowlist.
	ErrUnsupportedLanguage = errors.New("tts: unsupported language")

	// ErrStreamClosed is returned when reading from a closed stream.
	ErrStreamClosed = errors.New("tts: stream closed")

	// ErrProviderUnavailable is returned when no providers are available.
	ErrProviderUnavailable = errors.New("tts: no providers available")

	// ErrAllProvidersFailed is returned when all providers in a chain fail.
	ErrAllProvidersFailed = errors.New("tts: all providers failed")
)

// APIError represents an error response from a TTS API.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the error message from the API.
	Message string

	// Provider identifies which engine returned the error.
	Provider string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("tts [%s]: API error %d: %s", e.Provider, e.StatusCode, e.Message)
}

// IsRateLimited returns true for HTTP 429.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == 429
}

// IsUnauthorized returns true for HTTP 401.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == 401
}

// IsServerError returns true for HTTP 5xx.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}
