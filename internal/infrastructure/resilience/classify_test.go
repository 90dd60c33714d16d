package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/paper-checker/internal/core/domain"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyTransient(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"blank response", domain.WrapError(domain.ErrTemporary, "generate", errors.New("blank response")), true},
		{"connection refused", fmt.Errorf("post: %w", syscall.ECONNREFUSED), true},
		{"net timeout", fmt.Errorf("post: %w", timeoutErr{}), true},
		{"dial error", &net.OpError{Op: "dial", Err: errors.New("no route")}, true},
		{"open circuit", fmt.Errorf("call: %w", gobreaker.ErrOpenState), true},
		{"validation", domain.Validationf("decode", "bad enum"), false},
		{"client timeout", &url.Error{Op: "Post", URL: "http://ollama/api/generate", Err: context.DeadlineExceeded}, true},
		{"cancelled", fmt.Errorf("wait: %w", context.Canceled), false},
		{"cancelled request", &url.Error{Op: "Post", URL: "http://ollama/api/generate", Err: context.Canceled}, false},
		{"other", errors.New("boom"), false},
	}
	for _, tc := range cases {
		if got := ClassifyTransient(tc.err).Retryable; got != tc.retryable {
			t.Fatalf("%s: retryable = %v, want %v", tc.name, got, tc.retryable)
		}
	}
}

func TestExecuteValueRetriesBlankResponses(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
	})
	attempts := 0
	got, err := ExecuteValue(context.Background(), exec, "generate", func(context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", domain.WrapError(domain.ErrTemporary, "generate", errors.New("blank response"))
		}
		return "text", nil
	}, ClassifyTransient)
	if err != nil || got != "text" {
		t.Fatalf("ExecuteValue() = %q, %v", got, err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteValueStopsAfterMaxAttempts(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     2,
	})
	attempts := 0
	_, err := ExecuteValue(context.Background(), exec, "generate", func(context.Context) (string, error) {
		attempts++
		return "", fmt.Errorf("post: %w", syscall.ECONNREFUSED)
	}, ClassifyTransient)
	if !errors.Is(err, syscall.ECONNREFUSED) || attempts != 3 {
		t.Fatalf("expected 3 attempts ending in refusal, got %d: %v", attempts, err)
	}
}

func TestExecuteValueWithoutExecutor(t *testing.T) {
	got, err := ExecuteValue(context.Background(), nil, "op", func(context.Context) (int, error) { return 7, nil }, nil)
	if err != nil || got != 7 {
		t.Fatalf("ExecuteValue() = %d, %v", got, err)
	}
}

func TestDefaultConfigMatchesBackoffPolicy(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.RetryMaxAttempts != 3 || cfg.RetryInitialBackoff != time.Second || cfg.RetryMultiplier != 2 {
		t.Fatalf("unexpected default policy %+v", cfg)
	}
}
