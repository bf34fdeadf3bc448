package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// TestRateLimiter_BurstThenReject verifies the limiter admits a burst then rejects.
func TestRateLimiter_BurstThenReject(t *testing.T) {
	rl := NewRateLimiter(3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d rejected, want allowed", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("4th request allowed, want rejected")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("other IP rejected, want allowed")
	}
	if rl.VisitorCount() != 2 {
		t.Errorf("VisitorCount = %d, want 2", rl.VisitorCount())
	}
}

// TestRateLimiter_CleanupDropsIdleVisitors verifies idle visitors are forgotten.
func TestRateLimiter_CleanupDropsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(1)
	defer rl.Stop()

	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.Allow("10.0.0.1")

	now = now.Add(visitorTTL + time.Second)
	rl.Allow("10.0.0.2")
	rl.cleanup()

	if rl.VisitorCount() != 1 {
		t.Errorf("VisitorCount = %d, want 1", rl.VisitorCount())
	}
}

// TestRateLimit_Returns429 verifies the JSON rejection with Retry-After.
func TestRateLimit_Returns429(t *testing.T) {
	rl := NewRateLimiter(1)
	defer rl.Stop()
	handler := RateLimit(rl)(okHandler())

	req := httptest.NewRequest("GET", "/api/sessions", nil)
	req.RemoteAddr = "192.0.2.7:5555"

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, req)
	if first.Code != http.StatusOK {
		t.Fatalf("first status = %d, want 200", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, req)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", second.Code)
	}
	if second.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q, want 1", second.Header().Get("Retry-After"))
	}
	if !strings.Contains(second.Body.String(), "too many requests") {
		t.Errorf("body = %q", second.Body.String())
	}
}

// TestRateLimiter_StopIsIdempotent verifies Stop can be called twice.
func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1)
	rl.Stop()
	rl.Stop()
}

// TestSecurityHeaders verifies the OWASP headers are set.
func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders(okHandler()).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	for header, want := range map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	} {
		if got := rr.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
	if rr.Header().Get("Content-Security-Policy") == "" {
		t.Error("Content-Security-Policy missing")
	}
}

// TestCSRF_ExemptsJSON verifies JSON requests bypass the token check while forms are rejected.
func TestCSRF_ExemptsJSON(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	handler := CSRF(key, false, nil)(okHandler())

	jsonReq := httptest.NewRequest("POST", "/api/sessions/s1/enroll", strings.NewReader(`{}`))
	jsonReq.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, jsonReq)
	if rr.Code != http.StatusOK {
		t.Errorf("json status = %d, want 200", rr.Code)
	}

	formReq := httptest.NewRequest("POST", "/api/sessions/s1/enroll", strings.NewReader("a=b"))
	formReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, formReq)
	if rr.Code != http.StatusForbidden {
		t.Errorf("form status = %d, want 403", rr.Code)
	}
}

// TestChain_Order verifies the first middleware is innermost.
func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	Chain(okHandler(), mark("inner"), mark("outer")).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if strings.Join(order, ",") != "outer,inner" {
		t.Errorf("order = %v, want [outer inner]", order)
	}
}
