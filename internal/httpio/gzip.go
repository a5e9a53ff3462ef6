package httpio

import (
	"compress/gzip"
	"io"
)

// NewLazyGzipReader wraps src in a gzip decompressor that is only opened on
// the first Read. Wrapping a request body therefore consumes no transport
// bytes; stages that never read the body (such as authentication) leave the
// stream untouched.
func NewLazyGzipReader(src io.ReadCloser) io.ReadCloser {
	return &lazyGzipReader{src: src}
}

type lazyGzipReader struct {
	src io.ReadCloser
	zr  *gzip.Reader
	err error
}

func (l *lazyGzipReader) Read(p []byte) (int, error) {
	if l.err != nil {
		return 0, l.err
	}
	if l.zr == nil {
		zr, err := gzip.NewReader(l.src)
		if err != nil {
			l.err = err
			return 0, err
		}
		l.zr = zr
	}
	return l.zr.Read(p)
}

func (l *lazyGzipReader) Close() error {
	if l.zr != nil {
		if err := l.zr.Close(); err != nil {
			l.src.Close()
			return err
		}
	}
	return l.src.Close()
}
