package proxy

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fieldstream/ingest-gateway/internal/auth"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestForwarderReplaysBody(t *testing.T) {
	var gotBody []byte
	var gotPath string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("created"))
	}))
	defer backend.Close()

	f := New(backend.URL, 5*time.Second, discardLogger())

	req := httptest.NewRequest("POST", "/topics/test?async=true", strings.NewReader("validated bytes"))
	req.Header.Set("Content-Type", "application/vnd.kafka.avro.v1+json")
	rec := httptest.NewRecorder()
	f.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if rec.Body.String() != "created" {
		t.Errorf("body = %q, want backend response", rec.Body.String())
	}
	if string(gotBody) != "validated bytes" {
		t.Errorf("backend body = %q, want the request body unchanged", gotBody)
	}
	if gotPath != "/topics/test" {
		t.Errorf("backend path = %q, want /topics/test", gotPath)
	}
}

func TestForwarderPrincipalHeaders(t *testing.T) {
	var gotUser, gotScopes string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = r.Header.Get("X-Gateway-User")
		gotScopes = r.Header.Get("X-Gateway-Scopes")
	}))
	defer backend.Close()

	f := New(backend.URL, 5*time.Second, discardLogger())

	principal := &auth.Principal{Subject: "alice", Scopes: []string{"MEASUREMENT.CREATE", "MEASUREMENT.READ"}}
	req := httptest.NewRequest("GET", "/topics", nil)
	req = req.WithContext(auth.NewContext(req.Context(), principal))
	rec := httptest.NewRecorder()
	f.ServeHTTP(rec, req)

	if gotUser != "alice" {
		t.Errorf("X-Gateway-User = %q, want alice", gotUser)
	}
	if gotScopes != "MEASUREMENT.CREATE MEASUREMENT.READ" {
		t.Errorf("X-Gateway-Scopes = %q", gotScopes)
	}
}

func TestForwarderStripsHopHeaders(t *testing.T) {
	var gotConnection, gotEncoding string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotConnection = r.Header.Get("Keep-Alive")
		gotEncoding = r.Header.Get("Content-Encoding")
	}))
	defer backend.Close()

	f := New(backend.URL, 5*time.Second, discardLogger())

	req := httptest.NewRequest("POST", "/topics/test", strings.NewReader("data"))
	req.Header.Set("Keep-Alive", "timeout=5")
	req.Header.Set("Content-Encoding", "gzip") // stale after decompression
	rec := httptest.NewRecorder()
	f.ServeHTTP(rec, req)

	if gotConnection != "" {
		t.Errorf("Keep-Alive forwarded as %q, want stripped", gotConnection)
	}
	if gotEncoding != "" {
		t.Errorf("Content-Encoding forwarded as %q, want stripped", gotEncoding)
	}
}

func TestForwarderUnreachableBackend(t *testing.T) {
	f := New("http://127.0.0.1:1", 500*time.Millisecond, discardLogger())

	req := httptest.NewRequest("GET", "/topics", nil)
	rec := httptest.NewRecorder()
	f.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "bad_gateway") {
		t.Errorf("body = %q, want bad_gateway error", rec.Body.String())
	}
}
