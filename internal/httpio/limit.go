package httpio

import (
	"errors"
	"io"
)

// ErrTooLarge reports a request body exceeding the configured maximum size.
var ErrTooLarge = errors.New("request body too large")

// LimitReadCloser wraps rc so that reading more than max bytes fails with
// ErrTooLarge. Unlike io.LimitReader it reports the overflow instead of
// silently truncating, so oversized gzip bodies are rejected mid-read.
func LimitReadCloser(rc io.ReadCloser, max int64) io.ReadCloser {
	return &limitedReadCloser{rc: rc, remaining: max}
}

type limitedReadCloser struct {
	rc        io.ReadCloser
	remaining int64
}

func (l *limitedReadCloser) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, ErrTooLarge
	}
	n, err := l.rc.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, ErrTooLarge
	}
	return n, err
}

func (l *limitedReadCloser) Close() error {
	return l.rc.Close()
}
