package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/dragclip/dragclip/internal/bridge"
	"github.com/dragclip/dragclip/internal/resolve"
	"github.com/dragclip/dragclip/pkg/exchange"
)

// source adapts a provider list to the bridge.DataSource callback surface.
// The bridge pulls bytes through Resolve when the OS requests a format; the
// context deadline, when present, is the platform's deadline hint.
type source struct {
	e         *Engine
	id        string
	providers []*exchange.DataProvider
}

func (e *Engine) dragSource(s *Session) bridge.DataSource {
	return &source{e: e, id: s.id, providers: s.providers}
}

func (src *source) Items() int {
	return len(src.providers)
}

func (src *source) provider(item exchange.Item) (*exchange.DataProvider, bool) {
	i := int(item)
	if i < 0 || i >= len(src.providers) {
		return nil, false
	}
	return src.providers[i], true
}

func (src *source) Formats(item exchange.Item) []exchange.Format {
	p, ok := src.provider(item)
	if !ok {
		return nil
	}
	return p.Formats()
}

func (src *source) SuggestedName(item exchange.Item) string {
	p, ok := src.provider(item)
	if !ok {
		return ""
	}
	return p.Meta().SuggestedName
}

func (src *source) Resolve(ctx context.Context, item exchange.Item, format exchange.Format) ([]byte, error) {
	p, ok := src.provider(item)
	if !ok {
		return nil, fmt.Errorf("item %d: %w", item, exchange.ErrNotAvailable)
	}
	rep, ok := p.Representation(format)
	if !ok {
		return nil, fmt.Errorf("format %q: %w", format, exchange.ErrUnsupportedFormat)
	}
	var deadline time.Duration
	if d, ok := ctx.Deadline(); ok {
		deadline = time.Until(d)
	}
	key := resolve.Key{Session: src.id, Item: item, Format: format}
	select {
	case res := <-src.e.resolver.Resolve(key, rep, deadline):
		return res.Data, res.Err
	case <-ctx.Done():
		return nil, exchange.ErrCancelled
	}
}
