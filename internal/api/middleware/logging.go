package middleware

import (
	"net/http"
	"time"

	"cypher-catalog/internal/common/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestLogger logs one line per request with its status, size and latency.
func RequestLogger(log logger.Logger) func(http.Handler) http.Handler {
	log = logger.Component(log, "http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			fields := map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"durationMs": time.Since(start).Milliseconds(),
				"requestId":  RequestIDFromContext(r.Context()),
			}
			switch {
			case ww.Status() >= http.StatusInternalServerError:
				log.Error("request failed", fields)
			case ww.Status() >= http.StatusBadRequest:
				log.Warn("request rejected", fields)
			default:
				log.Info("request served", fields)
			}
		})
	}
}
