package ports

import (
	"errors"
	"fmt"
)

// Common infrastructure errors surfaced by vision backends.
var (
	// ErrBackendUnavailable indicates the backend process or endpoint
	// cannot be reached.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrBackendTimeout indicates no reply arrived within the
	// configured timeout.
	ErrBackendTimeout = errors.New("backend timed out")

	// ErrInvalidImage indicates the request image payload could not be
	// decoded.
	ErrInvalidImage = errors.New("invalid image payload")

	// ErrEmptyReply indicates the backend returned no content.
	ErrEmptyReply = errors.New("empty reply from backend")
)

// BackendError wraps a failure from a vision backend with enough
// context for logs. Backend failures are ordinary data to the analysis
// core: they become ERROR verdicts, never HTTP errors.
type BackendError struct {
	// Backend names the configured backend ("openai", "ollama", ...).
	Backend string

	// Model is the model identifier in use.
	Model string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s (model %s): %v", e.Backend, e.Model, e.Err)
}

// Unwrap returns the underlying error.
func (e *BackendError) Unwrap() error { return e.Err }

// NewBackendError creates a BackendError with the given details.
func NewBackendError(backend, model string, err error) *BackendError {
	return &BackendError{Backend: backend, Model: model, Err: err}
}
