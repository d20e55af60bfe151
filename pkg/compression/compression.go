// Package compression holds the gzip helpers used when promoted clipboard
// payloads are stored on disk. Small payloads are stored as-is; compression
// only kicks in above a threshold where it pays for itself.
package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// Threshold is the payload size below which Compress leaves data untouched.
const Threshold = 1024

// Compress gzips data when it is at or above Threshold. The second return
// value reports whether compression was applied.
func Compress(data []byte) ([]byte, bool, error) {
	if len(data) < Threshold {
		return data, false, nil
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, false, fmt.Errorf("compress payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, false, fmt.Errorf("compress payload: %w", err)
	}
	return buf.Bytes(), true, nil
}

// Decompress reverses Compress for a payload stored with compressed=true.
func Decompress(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decompress payload: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompress payload: %w", err)
	}
	return out, nil
}
