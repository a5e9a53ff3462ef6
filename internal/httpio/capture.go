// Package httpio provides the request body plumbing the gateway pipeline is
// built on: a capture buffer that drains a transport stream exactly once and
// replays it any number of times, a lazily-opened gzip reader, and a size
// limited reader.
package httpio

import (
	"bytes"
	"io"
)

const captureChunkSize = 4096

// Body holds a request payload that was drained from its transport stream.
// It is immutable; readers created from it are independent cursors over the
// same bytes.
type Body struct {
	data []byte
}

// Capture reads r to end-of-stream in bounded chunks and returns the
// captured body. A short read does not end the capture; only EOF does.
// The source is fully drained exactly once.
func Capture(r io.Reader) (*Body, error) {
	var buf bytes.Buffer
	chunk := make([]byte, captureChunkSize)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
		}
		if err == io.EOF {
			return &Body{data: buf.Bytes()}, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// NewReader returns a fresh reader over the captured bytes, independent of
// any reader previously handed out.
func (b *Body) NewReader() io.ReadCloser {
	return io.NopCloser(bytes.NewReader(b.data))
}

// Bytes returns the captured bytes. Callers must not modify them.
func (b *Body) Bytes() []byte {
	return b.data
}

func (b *Body) Len() int {
	return len(b.data)
}
