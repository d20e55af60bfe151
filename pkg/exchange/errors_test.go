package exchange

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transfer error", &TransferError{Cause: errors.New("io")}, true},
		{"wrapped transfer error", fmt.Errorf("read: %w", &TransferError{Cause: errors.New("io")}), true},
		{"cancelled", ErrCancelled, false},
		{"unsupported format", ErrUnsupportedFormat, false},
		{"resolution error", &ResolutionError{Format: FormatTextPlain, Cause: errors.New("producer")}, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestResolutionErrorUnwrap(t *testing.T) {
	err := &ResolutionError{Format: FormatTextPlain, Cause: ErrTimeout}
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), "text/plain")
}
