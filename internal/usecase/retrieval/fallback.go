package retrieval

import (
	"context"
	"errors"
	"time"

	"github.com/kailas-cloud/policyrag/internal/domain"
)

// maxAttempts bounds calls to an external collaborator: one try, one retry.
const maxAttempts = 2

// retryOnce runs fn with a per-attempt timeout and retries a failure once,
// unless the parent context is done. The final failure is reported as an
// ExternalServiceError of the vector index.
func retryOnce(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, timeout)
		}
		err := fn(callCtx)
		cancel()

		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	var ext *domain.ExternalServiceError
	if errors.As(lastErr, &ext) {
		return lastErr
	}
	return domain.NewExternalServiceError(domain.ServiceVectorIndex, "query", lastErr)
}
