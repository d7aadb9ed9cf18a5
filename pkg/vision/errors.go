package vision

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAPIKey is returned when an analyzer is created without credentials.
	ErrNoAPIKey = errors.New("vision: API key required")

	// ErrNoFrame is returned when Analyze is called with an empty frame.
	ErrNoFrame = errors.New("vision: no frame data")

	// ErrNoAnalyzers is returned when a chain is built with nothing in it.
	ErrNoAnalyzers = errors.New("vision: no analyzers configured")
)

// APIError is a non-2xx response from a model endpoint.
type APIError struct {
	StatusCode int
	Message    string
	Code       string
	Provider   string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("vision [%s]: API error %d (%s): %s", e.Provider, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("vision [%s]: API error %d: %s", e.Provider, e.StatusCode, e.Message)
}

// IsRateLimited returns true for HTTP 429.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == 429
}

// IsUnauthorized returns true for HTTP 401 and 403.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// IsServerError returns true for HTTP 5xx.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsRetryable reports whether the next tick has a chance of succeeding.
func (e *APIError) IsRetryable() bool {
	return e.IsRateLimited() || e.IsServerError()
}

// ProviderError tags an error with the analyzer that produced it.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("vision [%s]: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError wraps err with provider context. A nil err stays nil.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}

// ChainError collects the failures of every analyzer in a chain.
type ChainError struct {
	Errors []error
}

func (e *ChainError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "vision chain: no errors recorded"
	case 1:
		return fmt.Sprintf("vision chain: %v", e.Errors[0])
	}
	return fmt.Sprintf("vision chain: all %d analyzers failed, last error: %v",
		len(e.Errors), e.Errors[len(e.Errors)-1])
}

// Unwrap exposes every collected error to errors.Is and errors.As.
func (e *ChainError) Unwrap() []error {
	return e.Errors
}
