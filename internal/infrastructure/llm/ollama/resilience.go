package ollama

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/iamdbstjd/DC-TermProject3/internal/core/domain"
	"github.com/iamdbstjd/DC-TermProject3/internal/infrastructure/resilience"
)

// HTTPStatusError is a non-2xx response from the Ollama server.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("ollama: http %d: %s", e.StatusCode, e.Body)
}

// classifyModelError drives the executor. Transport faults and server-side
// overload are worth retrying; malformed payloads and client mistakes are
// not, and must not trip the breaker either.
func classifyModelError(err error) resilience.ErrorClassification {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusTooManyRequests:
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		case statusErr.StatusCode >= 500:
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		default:
			return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
		}
	}
	if errors.Is(err, context.Canceled) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

// mapModelError folds transport-level failures into the typed model error
// the core stages branch on.
func mapModelError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := domain.AsModelError(err); ok {
		return err
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusTooManyRequests:
			return domain.NewModelError(domain.ModelRateLimit, operation, err)
		case statusErr.StatusCode >= 500:
			return domain.NewModelError(domain.ModelTimeout, operation, err)
		default:
			return domain.NewModelError(domain.ModelInvalidResponse, operation, err)
		}
	}
	if resilience.IsCircuitOpen(err) {
		return domain.NewModelError(domain.ModelRateLimit, operation, err)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return domain.NewModelError(domain.ModelTimeout, operation, err)
	}
	return domain.NewModelError(domain.ModelInvalidResponse, operation, err)
}
