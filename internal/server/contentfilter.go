package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fieldstream/ingest-gateway/internal/auth"
	"github.com/fieldstream/ingest-gateway/internal/envelope"
	"github.com/fieldstream/ingest-gateway/internal/httpio"
	"github.com/fieldstream/ingest-gateway/internal/response"
)

var avroContentTypes = []string{
	"application/vnd.kafka.avro.v1+json",
	"application/vnd.kafka.avro.v2+json",
}

// AvroContentMiddleware validates Avro JSON envelopes before they reach the
// REST proxy. The body is drained from the transport exactly once into a
// replayable capture; after validation the downstream handler reads the
// captured bytes exactly as they were validated.
func AvroContentMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Only write requests carry envelopes.
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			if !isAvroContent(r.Header.Get("Content-Type")) {
				logger.Warn("got incompatible media type",
					slog.String("content_type", r.Header.Get("Content-Type")))
				response.WriteError(w, http.StatusUnsupportedMediaType,
					"unsupported_media_type", "Only Avro JSON messages are supported")
				return
			}

			principal := auth.FromContext(r.Context())
			if principal == nil {
				logger.Error("request was not authenticated by a previous filter: no principal attached")
				response.WriteError(w, http.StatusInternalServerError,
					"server_error", "configuration error")
				return
			}

			body, err := httpio.Capture(r.Body)
			if err != nil {
				AddError(r.Context(), err)
				if errors.Is(err, httpio.ErrTooLarge) {
					response.WriteError(w, http.StatusRequestEntityTooLarge,
						"too_large", "Request body exceeds the maximum allowed size")
					return
				}
				logger.Error("failed to read request body", slog.String("error", err.Error()))
				response.WriteError(w, http.StatusInternalServerError,
					"server_exception", "Failed to process message: "+err.Error())
				return
			}

			if err := envelope.Validate(body.Bytes(), principal.Subject); err != nil {
				AddError(r.Context(), err)
				writeValidationError(w, err)
				return
			}

			r.Body = body.NewReader()
			r.ContentLength = int64(body.Len())
			next.ServeHTTP(w, r)
		})
	}
}

func writeValidationError(w http.ResponseWriter, err error) {
	var syntaxErr *envelope.SyntaxError
	var semanticErr *envelope.SemanticError
	switch {
	case errors.As(err, &syntaxErr):
		response.WriteError(w, http.StatusBadRequest, "malformed_content", err.Error())
	case errors.As(err, &semanticErr):
		response.WriteError(w, http.StatusUnprocessableEntity, "invalid_content", err.Error())
	default:
		response.WriteError(w, http.StatusInternalServerError, "server_exception",
			"Failed to process message: "+err.Error())
	}
}

func isAvroContent(contentType string) bool {
	for _, t := range avroContentTypes {
		if strings.HasPrefix(contentType, t) {
			return true
		}
	}
	return false
}
