package httpio

import (
	"bytes"
	"compress/gzip"
	"io"
	"strings"
	"testing"
)

// flagReadCloser records whether it was ever read.
type flagReadCloser struct {
	io.Reader
	read bool
}

func (f *flagReadCloser) Read(p []byte) (int, error) {
	f.read = true
	return f.Reader.Read(p)
}

func (f *flagReadCloser) Close() error { return nil }

func gzipped(t *testing.T, data string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(data)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func TestLazyGzipReaderDecompresses(t *testing.T) {
	payload := "gzip goes in, plaintext comes out"
	r := NewLazyGzipReader(io.NopCloser(bytes.NewReader(gzipped(t, payload))))
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != payload {
		t.Errorf("read %q, want %q", got, payload)
	}
	if err := r.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}

func TestLazyGzipReaderDefersSourceRead(t *testing.T) {
	src := &flagReadCloser{Reader: bytes.NewReader(gzipped(t, "deferred"))}
	r := NewLazyGzipReader(src)
	if src.read {
		t.Fatal("source was read before first Read on the wrapper")
	}
	if _, err := io.ReadAll(r); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !src.read {
		t.Error("source was never read")
	}
}

func TestLazyGzipReaderInvalidStream(t *testing.T) {
	r := NewLazyGzipReader(io.NopCloser(strings.NewReader("this is not gzip")))
	if _, err := io.ReadAll(r); err == nil {
		t.Error("expected error for invalid gzip stream")
	}
	// The error is sticky across reads.
	if _, err := r.Read(make([]byte, 1)); err == nil {
		t.Error("expected sticky error on subsequent reads")
	}
}
