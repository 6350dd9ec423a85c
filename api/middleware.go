/*
middleware.go - Request logging and admin authentication

AUTH:
  APIKeyAuth guards /api/admin. The key travels in the X-API-Key header
  and is compared in constant time. Outside production an unset key
  disables the check, with a warning on every guarded request.

LOGGING:
  RequestLogger replaces chi's middleware.Logger so request lines go
  through the same zap logger as everything else.
*/
package api

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/zachtilly/childcare-api/logger"
)

const APIKeyHeader = "X-API-Key"

// APIKeyAuth returns middleware requiring the admin key.
func APIKeyAuth(key string, production bool, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" && !production {
				log.Warn("admin authentication is disabled, set ADMIN_API_KEY in production", "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}

			got := r.Header.Get(APIKeyHeader)
			if got == "" {
				writeError(w, http.StatusUnauthorized, "Missing API key. Include X-API-Key header.", nil)
				return
			}
			if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				log.Warn("rejected admin request", "path", r.URL.Path, "remote", r.RemoteAddr)
				writeError(w, http.StatusUnauthorized, "Invalid API key", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs one line per request after it completes.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
