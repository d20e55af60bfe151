//go:build linux || darwin || windows

package bridge

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.design/x/clipboard"

	"github.com/dragclip/dragclip/pkg/exchange"
)

// Native is the OS clipboard bridge over golang.design/x/clipboard. The
// library exposes a single text and a single image slot, so this backend
// promotes at write time: the first item's text/plain and image/png
// representations are resolved once and handed to the OS. It is clipboard
// only; drag sessions report ErrDragUnsupported.
type Native struct {
	logger *zap.Logger
}

// NewNative initializes the OS clipboard. It fails when no display
// environment is available (headless server, container); callers fall back
// to the bolt bridge then.
func NewNative(logger *zap.Logger) (*Native, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := clipboard.Init(); err != nil {
		return nil, fmt.Errorf("native clipboard unavailable: %w", err)
	}
	return &Native{logger: logger}, nil
}

func (n *Native) Name() string { return "native" }

func (n *Native) BeginDrag(sessionID string, source DataSource) error {
	return ErrDragUnsupported
}

func (n *Native) WriteClipboard(source DataSource) error {
	if source.Items() == 0 {
		return exchange.ErrNotAvailable
	}
	item := exchange.Item(0)
	wrote := 0
	for _, format := range source.Formats(item) {
		var fmtNative clipboard.Format
		switch format {
		case exchange.FormatTextPlain:
			fmtNative = clipboard.FmtText
		case exchange.FormatImagePNG:
			fmtNative = clipboard.FmtImage
		default:
			// The library only carries text and PNG; other formats are
			// simply not promoted to the OS.
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		data, err := source.Resolve(ctx, item, format)
		cancel()
		if err != nil {
			n.logger.Warn("format not promoted to OS clipboard",
				zap.String("format", string(format)),
				zap.Error(err))
			continue
		}
		clipboard.Write(fmtNative, data)
		wrote++
	}
	if wrote == 0 {
		return fmt.Errorf("no OS-promotable representation: %w", exchange.ErrUnsupportedFormat)
	}
	return nil
}

func (n *Native) ReadClipboard() (exchange.DataReader, error) {
	item := StaticItem{Data: make(map[exchange.Format][]byte)}
	if text := clipboard.Read(clipboard.FmtText); len(text) > 0 {
		item.Order = append(item.Order, exchange.FormatTextPlain)
		item.Data[exchange.FormatTextPlain] = text
	}
	if img := clipboard.Read(clipboard.FmtImage); len(img) > 0 {
		item.Order = append(item.Order, exchange.FormatImagePNG)
		item.Data[exchange.FormatImagePNG] = img
	}
	if len(item.Order) == 0 {
		return NewStaticReader(nil), nil
	}
	return NewStaticReader([]StaticItem{item}), nil
}

func (n *Native) ReadDrop(ev DropEvent) (exchange.DataReader, error) {
	return NewSourceReader(ev.Source), nil
}

// Watch reports OS clipboard changes until ctx is cancelled. Each signal
// means the contents changed; the caller re-reads through ReadClipboard.
func (n *Native) Watch(ctx context.Context) <-chan struct{} {
	out := make(chan struct{}, 1)
	text := clipboard.Watch(ctx, clipboard.FmtText)
	img := clipboard.Watch(ctx, clipboard.FmtImage)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-text:
				if !ok {
					return
				}
			case _, ok := <-img:
				if !ok {
					return
				}
			}
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()
	return out
}

func (n *Native) Close() error {
	return nil
}
