package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultAllowHeaders = "content-type, x-user-email, cf-access-authenticated-user-email"

// userEmail extracts the caller identity. Cloudflare Access injects the
// first header at the edge; the second is the direct-call fallback.
func userEmail(r *http.Request) string {
	email := r.Header.Get("cf-access-authenticated-user-email")
	if email == "" {
		email = r.Header.Get("x-user-email")
	}
	return strings.TrimSpace(email)
}

// applyCORS echoes the caller origin so credentialed requests pass.
func applyCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = "*"
	}
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Vary", "Origin")

	allowHeaders := r.Header.Get("Access-Control-Request-Headers")
	if allowHeaders == "" {
		allowHeaders = defaultAllowHeaders
	}
	h.Set("Access-Control-Allow-Headers", allowHeaders)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// WithMiddleware wraps the router with CORS, OPTIONS preflight handling
// and request logging.
func WithMiddleware(next http.Handler, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		applyCORS(w, r)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		requestID := uuid.New().String()
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		logger.Info("request completed",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
