package nats

import (
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/paper-checker/internal/infrastructure/resilience"
)

// classifyNATSError retries while the connection is missing or reconnecting.
// Everything else (bad subject, oversized payload) is permanent.
func classifyNATSError(err error) resilience.ErrorClassification {
	switch {
	case errors.Is(err, nats.ErrNoServers),
		errors.Is(err, nats.ErrTimeout),
		errors.Is(err, nats.ErrConnectionClosed),
		errors.Is(err, nats.ErrConnectionReconnecting),
		errors.Is(err, nats.ErrDisconnected):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ClassifyTransient(err)
}

func wrapTemporaryIfNeeded(err error) error {
	return resilience.MarkTemporary("nats publish", err, classifyNATSError)
}
