package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	limiter := NewRateLimiter(RateLimit{RequestsPerMinute: 60, Burst: 1}, nil)
	now := time.Unix(1_800_000_000, 0)
	limiter.clockNow = func() time.Time { return now }
	handler := limiter.Middleware("participant")(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/v1/sale/contribute", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", res.Code)
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be rate limited, got %d", res.Code)
	}

	other := httptest.NewRequest(http.MethodPost, "/v1/sale/contribute", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, other)
	if res.Code != http.StatusOK {
		t.Fatalf("expected a distinct client to have its own bucket, got %d", res.Code)
	}

	now = now.Add(time.Second)
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected the bucket to refill, got %d", res.Code)
	}
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	limiter := NewRateLimiter(RateLimit{RequestsPerMinute: 60, Burst: 1}, nil)
	now := time.Unix(1_800_000_000, 0)
	limiter.clockNow = func() time.Time { return now }
	limiter.obtainLimiter("ip:10.0.0.1")
	now = now.Add(10 * time.Minute)
	limiter.obtainLimiter("ip:10.0.0.2")
	if _, ok := limiter.visitors["ip:10.0.0.1"]; ok {
		t.Fatalf("expected idle client to be evicted")
	}
}

func TestClientIDPrefersSubject(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := clientID(req); got != "ip:203.0.113.9" {
		t.Fatalf("unexpected forwarded id %q", got)
	}
	subject := [20]byte{0xaa}
	req = req.WithContext(contextWithSubject(req, subject))
	if got := clientID(req); got[:4] != "sub:" {
		t.Fatalf("expected subject id, got %q", got)
	}
}
