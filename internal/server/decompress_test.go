package server

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func gzipBody(t *testing.T, data string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(data)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return &buf
}

func TestDecompressMiddlewarePassThrough(t *testing.T) {
	for _, encoding := range []string{"", "identity", "IDENTITY"} {
		var got []byte
		handler := DecompressMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, _ = io.ReadAll(r.Body)
		}))

		req := httptest.NewRequest("POST", "/topics/test", strings.NewReader("plain data"))
		if encoding != "" {
			req.Header.Set("Content-Encoding", encoding)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("encoding %q: status = %d, want 200", encoding, rec.Code)
		}
		if string(got) != "plain data" {
			t.Errorf("encoding %q: body = %q, want unchanged", encoding, got)
		}
	}
}

func TestDecompressMiddlewareGzip(t *testing.T) {
	var got []byte
	var gotLength int64
	handler := DecompressMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLength = r.ContentLength
		got, _ = io.ReadAll(r.Body)
	}))

	compressed := gzipBody(t, "decompressed payload")
	req := httptest.NewRequest("POST", "/topics/test", compressed)
	req.Header.Set("Content-Encoding", "GZIP")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if string(got) != "decompressed payload" {
		t.Errorf("body = %q, want decompressed payload", got)
	}
	if gotLength != -1 {
		t.Errorf("ContentLength = %d, want -1 for decompressed bodies", gotLength)
	}
}

// readFlagger fails the test if the body is ever read.
type readFlagger struct {
	t *testing.T
}

func (f *readFlagger) Read([]byte) (int, error) {
	f.t.Error("request body was read")
	return 0, io.EOF
}

func TestDecompressMiddlewareUnknownEncoding(t *testing.T) {
	handler := DecompressMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not run for unknown encodings")
	}))

	req := httptest.NewRequest("POST", "/topics/test", &readFlagger{t})
	req.Header.Set("Content-Encoding", "br")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid_encoding") {
		t.Errorf("body = %q, want invalid_encoding error", rec.Body.String())
	}
}

func TestDecompressMiddlewareGzipLazy(t *testing.T) {
	// Wrapping alone must not read the transport; only the downstream
	// handler's read may.
	handler := DecompressMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("POST", "/topics/test", &readFlagger{t})
	req.Header.Set("Content-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
