package engine

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dragclip/dragclip/internal/bridge"
	"github.com/dragclip/dragclip/pkg/exchange"
)

// WriteClipboard replaces the clipboard contents with the given items. Lazy
// producers are not invoked here; the bridge pulls them on demand, or
// promotes them once for backends without delayed rendering.
func (e *Engine) WriteClipboard(providers []*exchange.DataProvider) error {
	if len(providers) == 0 {
		return fmt.Errorf("clipboard write needs at least one provider: %w", exchange.ErrInvalidFormat)
	}
	id := "clipboard-" + uuid.NewString()
	src := &source{e: e, id: id, providers: providers}
	if err := e.bridge.WriteClipboard(src); err != nil {
		return fmt.Errorf("write clipboard: %w", bridge.WrapNative(err))
	}

	// The overwritten entry's pseudo-session is abandoned: its resolver
	// bookkeeping is dropped and reads still pending against it fail with
	// ErrCancelled, the same way a replaced clipboard behaves natively.
	e.clipMu.Lock()
	prev := e.clipID
	e.clipID = id
	e.clipMu.Unlock()
	if prev != "" {
		e.resolver.Abandon(prev)
	}

	e.logger.Debug("clipboard written",
		zap.String("write", id),
		zap.Int("items", len(providers)),
		zap.String("bridge", e.bridge.Name()))
	return nil
}

// ReadClipboard opens a snapshot reader over the current clipboard.
func (e *Engine) ReadClipboard() (exchange.DataReader, error) {
	r, err := e.bridge.ReadClipboard()
	if err != nil {
		return nil, fmt.Errorf("read clipboard: %w", bridge.WrapNative(err))
	}
	return r, nil
}

// ReadDrop opens a snapshot reader over an incoming drop event.
func (e *Engine) ReadDrop(ev bridge.DropEvent) (exchange.DataReader, error) {
	r, err := e.bridge.ReadDrop(ev)
	if err != nil {
		return nil, fmt.Errorf("read drop: %w", bridge.WrapNative(err))
	}
	return r, nil
}
