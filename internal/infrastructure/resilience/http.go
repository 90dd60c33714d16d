package resilience

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kirillkom/paper-checker/internal/core/domain"
)

// StatusError is a non-2xx answer from an HTTP dependency.
type StatusError struct {
	Service    string
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

// NewStatusError keeps at most 2 KiB of the response body.
func NewStatusError(service, operation string, resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &StatusError{
		Service:    service,
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(body)),
	}
}

func (e *StatusError) Error() string {
	prefix := strings.TrimSpace(e.Service + " " + e.Operation)
	if e.Body == "" {
		return fmt.Sprintf("%s status: %s", prefix, e.Status)
	}
	return fmt.Sprintf("%s status: %s: %s", prefix, e.Status, e.Body)
}

// ClassifyHTTP retries 408, 429 and 5xx responses. Other statuses are the
// caller's fault and leave the breaker alone. Errors without a status go
// through ClassifyTransient.
func ClassifyHTTP(err error) ErrorClassification {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return ClassifyTransient(err)
	}
	switch code := statusErr.StatusCode; {
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests, code >= 500:
		return ErrorClassification{Retryable: true, RecordFailure: true}
	default:
		return ErrorClassification{}
	}
}

// MarkTemporary tags a retryable failure as domain.ErrTemporary once the
// executor has given up on it.
func MarkTemporary(operation string, err error, classifier ErrorClassifier) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifier == nil {
		classifier = ClassifyTransient
	}
	if classifier(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}
