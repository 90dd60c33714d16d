package resilience

import (
	"context"
	"errors"
	"net"
	"syscall"

	"github.com/kirillkom/paper-checker/internal/core/domain"
)

// ClassifyTransient retries connection refusals, timeouts, open circuits
// and errors marked domain.ErrTemporary (blank responses included). Output
// validation errors and cancellation are never retried. An http.Client
// timeout also matches context.DeadlineExceeded, so deadlines count as
// timeouts here; the executor stops on its own once the caller's context
// is done.
func ClassifyTransient(err error) ErrorClassification {
	switch {
	case err == nil:
		return ErrorClassification{}
	case errors.Is(err, context.Canceled):
		return ErrorClassification{Retryable: false, RecordFailure: false}
	case domain.IsKind(err, domain.ErrValidation), domain.IsKind(err, domain.ErrInvalidInput):
		return ErrorClassification{Retryable: false, RecordFailure: false}
	case IsCircuitOpen(err):
		return ErrorClassification{Retryable: true, RecordFailure: true}
	case domain.IsKind(err, domain.ErrTemporary):
		return ErrorClassification{Retryable: true, RecordFailure: true}
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET):
		return ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return ErrorClassification{Retryable: false, RecordFailure: true}
}
