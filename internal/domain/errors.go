package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuery signals a query that cannot be searched (empty, too long, bad limits).
	ErrInvalidQuery = errors.New("invalid query")
	// ErrExternalService signals a failing collaborator: vector index, embedder or LLM.
	ErrExternalService = errors.New("external service error")
	// ErrConfiguration signals missing or inconsistent startup configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrMalformedCacheEntry signals a cached value that cannot be decoded.
	ErrMalformedCacheEntry = errors.New("malformed cache entry")
)

// Names of the external collaborators, used in ExternalServiceError and metrics labels.
const (
	ServiceEmbedding   = "embedding"
	ServiceVectorIndex = "vector_index"
	ServiceLLM         = "llm"
)

// ExternalServiceError wraps a failure of an external collaborator.
// Callers match it with errors.Is(err, ErrExternalService).
type ExternalServiceError struct {
	Service string
	Op      string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Service, e.Op, e.Err)
}

// Unwrap exposes both the sentinel and the cause.
func (e *ExternalServiceError) Unwrap() []error { return []error{ErrExternalService, e.Err} }

// NewExternalServiceError builds an ExternalServiceError. Nil err yields nil.
func NewExternalServiceError(service, op string, err error) error {
	if err == nil {
		return nil
	}
	return &ExternalServiceError{Service: service, Op: op, Err: err}
}

// ConfigError reports a fatal configuration problem detected at construction time.
func ConfigError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
