package middleware

import (
	"net/http"

	"github.com/botforge-ai/botforge/internal/api"
)

// MaxBodyBytes caps request body size at maxBytes. Requests that declare a
// larger Content-Length are rejected up front; chunked bodies are cut off
// by MaxBytesReader once they exceed the cap. A cap of zero or less
// disables the middleware.
func MaxBodyBytes(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if maxBytes <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil {
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength > maxBytes {
				api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
