package api

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"cinematch/internal/logging"
	"cinematch/internal/services"
)

const requestIDHeader = "X-Request-ID"

// requestID tags the request context with a correlation id, reusing a
// client-supplied X-Request-ID when present.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

// authMiddleware validates bearer tokens. If token is empty, no
// authentication is required and all requests pass through.
func authMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			presented, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="cinematch"`)
				writeJSON(w, nil, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Kind: "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// accessLog records metrics for every request and logs it at debug level.
func accessLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			if route == "" {
				route = "unmatched"
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			httpRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
			httpRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())

			logging.WithContext(r.Context(), logger).Debug("http request",
				logging.String("method", r.Method),
				logging.String("route", route),
				logging.Int("status", status),
				logging.Int("bytes", ww.BytesWritten()),
				logging.Duration("elapsed", elapsed),
			)
		})
	}
}
