package exchange

import (
	"bytes"
	"fmt"
	"io"
)

func bytesReader(data []byte) io.Reader {
	return bytes.NewReader(data)
}

// lengthChecked enforces a declared stream length: the wrapped reader must
// yield exactly the declared number of bytes, no truncation and no padding.
type lengthChecked struct {
	rc       io.ReadCloser
	format   Format
	declared int64
	seen     int64
}

func newLengthChecked(rc io.ReadCloser, declared int64, format Format) io.ReadCloser {
	return &lengthChecked{rc: rc, format: format, declared: declared}
}

func (l *lengthChecked) Read(p []byte) (int, error) {
	n, err := l.rc.Read(p)
	l.seen += int64(n)
	if l.seen > l.declared {
		return n, &ResolutionError{
			Format: l.format,
			Cause:  fmt.Errorf("stream exceeded declared length %d", l.declared),
		}
	}
	if err == io.EOF && l.seen != l.declared {
		return n, &ResolutionError{
			Format: l.format,
			Cause:  fmt.Errorf("stream ended at %d bytes, declared %d", l.seen, l.declared),
		}
	}
	return n, err
}

func (l *lengthChecked) Close() error {
	return l.rc.Close()
}
