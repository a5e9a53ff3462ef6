package server

import (
	"net/http"
	"strings"

	"github.com/fieldstream/ingest-gateway/internal/httpio"
	"github.com/fieldstream/ingest-gateway/internal/response"
)

// DecompressMiddleware transparently decompresses gzip request bodies.
// Identity-encoded data is not modified. The gzip stream is opened lazily
// on the first body read, so stages that only look at headers never touch
// the transport. Unknown encodings are rejected before any body read.
func DecompressMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		encoding := strings.ToLower(r.Header.Get("Content-Encoding"))
		switch encoding {
		case "", "identity":
			next.ServeHTTP(w, r)
		case "gzip":
			r.Body = httpio.NewLazyGzipReader(r.Body)
			// The compressed length no longer describes the body.
			r.ContentLength = -1
			r.Header.Del("Content-Length")
			r.Header.Del("Content-Encoding")
			next.ServeHTTP(w, r)
		default:
			response.WriteError(w, http.StatusBadRequest, "invalid_encoding",
				"Content encoding "+encoding+" unknown. Please use gzip or no encoding.")
		}
	})
}
