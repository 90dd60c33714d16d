package httpadapter

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kirillkom/paper-checker/internal/config"
)

func TestRateLimitMiddlewareReturns429(t *testing.T) {
	h := newHarness(t, config.Config{
		RateLimitRPS:   1,
		RateLimitBurst: 1,
	})

	res1 := h.do(http.MethodGet, "/v1/paper-checks", "", nil)
	if res1.Code != http.StatusOK {
		t.Fatalf("first request expected 200, got %d", res1.Code)
	}

	res2 := h.do(http.MethodGet, "/v1/paper-checks", "", nil)
	if res2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request expected 429, got %d", res2.Code)
	}
	if res2.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header for 429 response")
	}

	if res := h.do(http.MethodGet, "/healthz", "", nil); res.Code != http.StatusOK {
		t.Fatalf("health endpoint must bypass rate limit, got %d", res.Code)
	}
}

func TestRateLimitMiddlewareReportsRejection(t *testing.T) {
	var reasons []string
	handler := rateLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), 0.5, 1, func(reason string) { reasons = append(reasons, reason) })

	for range 2 {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/paper-checks", nil))
	}
	if len(reasons) != 1 || reasons[0] != "rate_limited" {
		t.Fatalf("expected one rate_limited rejection, got %v", reasons)
	}
}

func TestBackpressureRejectsWhileSlotHeldAndRecovers(t *testing.T) {
	holding := make(chan struct{})
	release := make(chan struct{})
	first := make(chan int, 1)

	var rejected []string
	handler := backpressureMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("hold") != "" {
			close(holding)
			<-release
		}
		w.WriteHeader(http.StatusNoContent)
	}), 1, 20*time.Millisecond, func(reason string) { rejected = append(rejected, reason) })

	serve := func(target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		return rec
	}

	go func() { first <- serve("/v1/paper-checks?hold=1").Code }()
	<-holding

	busy := serve("/v1/paper-checks")
	if busy.Code != http.StatusServiceUnavailable || busy.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected 503 with Retry-After while saturated, got %d %v", busy.Code, busy.Header())
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(busy.Body.Bytes(), &body); err != nil || body.Error == "" {
		t.Fatalf("expected an error message, got %q: %v", busy.Body.String(), err)
	}
	if len(rejected) != 1 || rejected[0] != "overloaded" {
		t.Fatalf("expected one overloaded rejection, got %v", rejected)
	}

	close(release)
	select {
	case code := <-first:
		if code != http.StatusNoContent {
			t.Fatalf("held request expected 204, got %d", code)
		}
	case <-time.After(time.Second):
		t.Fatalf("held request did not finish")
	}

	if rec := serve("/v1/paper-checks"); rec.Code != http.StatusNoContent {
		t.Fatalf("slot must be released after the held request, got %d", rec.Code)
	}
}
