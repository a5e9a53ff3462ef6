// Package proxy forwards admitted requests to the downstream Kafka REST
// proxy, replaying the captured request body.
package proxy

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fieldstream/ingest-gateway/internal/auth"
	"github.com/fieldstream/ingest-gateway/internal/response"
)

// hopHeaders are connection-scoped headers that must not be forwarded.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

type Forwarder struct {
	target     string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(targetURL string, timeout time.Duration, logger *slog.Logger) *Forwarder {
	return &Forwarder{
		target: strings.TrimRight(targetURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// ServeHTTP forwards the request to the REST proxy. The body it sends is
// whatever the pipeline left on the request: for validated writes that is
// the captured, decompressed envelope, byte for byte as it was validated.
func (f *Forwarder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	targetURL := f.target + r.URL.Path
	if r.URL.RawQuery != "" {
		targetURL += "?" + r.URL.RawQuery
	}

	proxyReq, err := http.NewRequestWithContext(r.Context(), r.Method, targetURL, r.Body)
	if err != nil {
		f.logger.Error("building proxy request", slog.String("error", err.Error()))
		response.WriteError(w, http.StatusInternalServerError, "server_exception",
			"Failed to forward message")
		return
	}
	proxyReq.ContentLength = r.ContentLength

	for key, values := range r.Header {
		if isHopHeader(key) {
			continue
		}
		for _, value := range values {
			proxyReq.Header.Add(key, value)
		}
	}
	// The forwarded body is the decompressed capture; a stale length would
	// be wrong.
	proxyReq.Header.Del("Content-Length")
	proxyReq.Header.Del("Content-Encoding")

	if principal := auth.FromContext(r.Context()); principal != nil {
		proxyReq.Header.Set("X-Gateway-User", principal.Subject)
		if len(principal.Scopes) > 0 {
			proxyReq.Header.Set("X-Gateway-Scopes", strings.Join(principal.Scopes, " "))
		}
	}

	resp, err := f.httpClient.Do(proxyReq)
	if err != nil {
		f.logger.Error("proxy request failed",
			slog.String("target", targetURL),
			slog.String("error", err.Error()))
		response.WriteError(w, http.StatusBadGateway, "bad_gateway",
			"Kafka REST proxy is unreachable")
		return
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		f.logger.Warn("copying proxy response", slog.String("error", err.Error()))
	}
}

func isHopHeader(name string) bool {
	for _, h := range hopHeaders {
		if strings.EqualFold(name, h) {
			return true
		}
	}
	return false
}
