package compression

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressBelowThreshold(t *testing.T) {
	data := []byte("small payload")
	out, compressed, err := Compress(data)
	require.NoError(t, err)
	assert.False(t, compressed)
	assert.Equal(t, data, out)
}

func TestCompressRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("clipboard "), 1000)
	out, compressed, err := Compress(data)
	require.NoError(t, err)
	assert.True(t, compressed)
	assert.Less(t, len(out), len(data))

	back, err := Decompress(out)
	require.NoError(t, err)
	assert.Equal(t, data, back)
}

func TestDecompressGarbage(t *testing.T) {
	_, err := Decompress([]byte("not gzip at all"))
	require.Error(t, err)
}
