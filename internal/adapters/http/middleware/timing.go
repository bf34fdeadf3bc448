package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// DefaultSlowRequest is the latency at which a request is logged at WARN.
const DefaultSlowRequest = 500 * time.Millisecond

// unmatchedRoute labels requests no route pattern matched, so 404 probes
// cannot blow up metric cardinality.
const unmatchedRoute = "unmatched"

// RequestObserver receives one observation per timed request.
type RequestObserver interface {
	RecordHTTPRequest(route, method string, status int, d time.Duration)
}

// Timing logs and observes every request except /metrics and /healthz.
// It seeds a chi route context before the router runs so the matched
// pattern (for example /api/sessions/{id}/enroll) is readable afterwards.
// PRE: installed outside the chi router
// POST: observer (when non-nil) sees route, method, status and latency, even if next panics
func Timing(observer RequestObserver, threshold time.Duration) func(http.Handler) http.Handler {
	if threshold <= 0 {
		threshold = DefaultSlowRequest
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/metrics", "/healthz":
				next.ServeHTTP(w, r)
				return
			}

			rctx := chi.RouteContext(r.Context())
			if rctx == nil {
				rctx = chi.NewRouteContext()
				r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
			}
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			began := time.Now()

			defer func() {
				took := time.Since(began)
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				route := rctx.RoutePattern()
				if route == "" {
					route = unmatchedRoute
				}

				lvl, msg := slog.LevelDebug, "request"
				if took >= threshold {
					lvl, msg = slog.LevelWarn, "slow_request"
				}
				slog.Log(r.Context(), lvl, msg,
					"request_id", chimw.GetReqID(r.Context()),
					"method", r.Method,
					"route", route,
					"path", r.URL.Path,
					"status", status,
					"bytes", ww.BytesWritten(),
					"duration_ms", float64(took.Microseconds())/1000,
				)
				if observer != nil {
					observer.RecordHTTPRequest(route, r.Method, status, took)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
