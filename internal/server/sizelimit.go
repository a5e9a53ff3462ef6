package server

import (
	"fmt"
	"net/http"

	"github.com/fieldstream/ingest-gateway/internal/httpio"
	"github.com/fieldstream/ingest-gateway/internal/response"
)

// SizeLimitMiddleware rejects requests larger than max bytes. A declared
// Content-Length above the limit fails up front; bodies of unknown length
// (decompressed gzip) are limited while being read, surfacing
// httpio.ErrTooLarge to the reading stage.
func SizeLimitMiddleware(max int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > max {
				response.WriteError(w, http.StatusRequestEntityTooLarge, "too_large",
					fmt.Sprintf("Request size exceeds the maximum of %d bytes", max))
				return
			}
			r.Body = httpio.LimitReadCloser(r.Body, max)
			next.ServeHTTP(w, r)
		})
	}
}
