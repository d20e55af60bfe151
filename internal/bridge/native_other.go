//go:build !linux && !darwin && !windows

package bridge

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dragclip/dragclip/pkg/exchange"
)

// Native is unavailable on this platform; the type exists so callers can
// name it without build tags of their own. Every operation fails.
type Native struct{}

// NewNative reports that no OS clipboard backend exists for this platform.
// Callers fall back to the bolt bridge.
func NewNative(logger *zap.Logger) (*Native, error) {
	return nil, fmt.Errorf("native clipboard not supported on this platform")
}

func (n *Native) Name() string { return "native" }

func (n *Native) BeginDrag(sessionID string, source DataSource) error {
	return ErrDragUnsupported
}

func (n *Native) WriteClipboard(source DataSource) error {
	return fmt.Errorf("native clipboard not supported on this platform")
}

func (n *Native) ReadClipboard() (exchange.DataReader, error) {
	return nil, fmt.Errorf("native clipboard not supported on this platform")
}

func (n *Native) ReadDrop(ev DropEvent) (exchange.DataReader, error) {
	return NewSourceReader(ev.Source), nil
}

func (n *Native) Watch(ctx context.Context) <-chan struct{} {
	out := make(chan struct{})
	close(out)
	return out
}

func (n *Native) Close() error { return nil }
