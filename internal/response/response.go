// Package response writes the gateway's canonical JSON error body.
package response

import (
	"encoding/json"
	"net/http"
	"strings"
)

// errorBody is the error shape returned on every rejection:
// {"error_code":<status>,"message":"<tag>: <description>"}.
type errorBody struct {
	ErrorCode int    `json:"error_code"`
	Message   string `json:"message"`
}

var descriptionSanitizer = strings.NewReplacer("\n", "", `"`, "'")

// WriteError writes a rejection response. Newlines in the description are
// stripped and double quotes rewritten to single quotes, matching the
// message format clients of the REST proxy already parse.
func WriteError(w http.ResponseWriter, statusCode int, tag, description string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		ErrorCode: statusCode,
		Message:   tag + ": " + descriptionSanitizer.Replace(description),
	})
}
