package middleware

import (
	"net/http"

	"github.com/cloo-solutions/pageoracle/internal/api"
)

// MaxBodyBytes limits request body size. Declared lengths over the limit are
// rejected here; streamed bodies fail on read with *http.MaxBytesError, which
// handlers turn into the same 413.
func MaxBodyBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit <= 0 || r.Body == nil {
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength > limit && r.ContentLength != -1 {
				api.Error(w, http.StatusRequestEntityTooLarge, api.BodyTooLargeDetail)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
