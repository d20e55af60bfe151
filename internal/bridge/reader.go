package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/dragclip/dragclip/pkg/exchange"
)

// sourceReader adapts a DataSource to the exchange.DataReader view. The
// item and format listing is snapshotted when the reader is opened; byte
// retrieval goes back through the source asynchronously.
type sourceReader struct {
	source  DataSource
	items   []exchange.Item
	formats map[exchange.Item][]exchange.Format
	names   map[exchange.Item]string
}

// NewSourceReader opens a snapshot reader over a DataSource. Used for
// in-process drops and the in-process clipboard.
func NewSourceReader(source DataSource) exchange.DataReader {
	r := &sourceReader{
		source:  source,
		formats: make(map[exchange.Item][]exchange.Format),
		names:   make(map[exchange.Item]string),
	}
	if source != nil {
		for i := 0; i < source.Items(); i++ {
			item := exchange.Item(i)
			r.items = append(r.items, item)
			r.formats[item] = source.Formats(item)
			r.names[item] = source.SuggestedName(item)
		}
	}
	return r
}

func (r *sourceReader) Items() []exchange.Item {
	out := make([]exchange.Item, len(r.items))
	copy(out, r.items)
	return out
}

func (r *sourceReader) Formats(item exchange.Item) []exchange.Format {
	fs := r.formats[item]
	out := make([]exchange.Format, len(fs))
	copy(out, fs)
	return out
}

func (r *sourceReader) SuggestedName(item exchange.Item) string {
	return r.names[item]
}

func (r *sourceReader) Read(ctx context.Context, item exchange.Item, format exchange.Format) <-chan exchange.ReadResult {
	out := make(chan exchange.ReadResult, 1)
	go func() {
		defer close(out)
		if r.source == nil {
			out <- exchange.ReadResult{Err: exchange.ErrNotAvailable}
			return
		}
		data, err := r.source.Resolve(ctx, item, format)
		out <- exchange.ReadResult{Data: data, Err: readThrough(err)}
	}()
	return out
}

func (r *sourceReader) Close() error {
	return nil
}

// staticReader serves a fully promoted snapshot: every format's bytes are
// already in memory. Used by backends that promote at write time.
type staticReader struct {
	items []StaticItem
}

// StaticItem is one promoted item of a staticReader snapshot.
type StaticItem struct {
	SuggestedName string
	Order         []exchange.Format
	Data          map[exchange.Format][]byte
}

// NewStaticReader builds a reader over promoted items.
func NewStaticReader(items []StaticItem) exchange.DataReader {
	return &staticReader{items: items}
}

func (r *staticReader) Items() []exchange.Item {
	out := make([]exchange.Item, len(r.items))
	for i := range r.items {
		out[i] = exchange.Item(i)
	}
	return out
}

func (r *staticReader) item(item exchange.Item) (*StaticItem, bool) {
	i := int(item)
	if i < 0 || i >= len(r.items) {
		return nil, false
	}
	return &r.items[i], true
}

func (r *staticReader) Formats(item exchange.Item) []exchange.Format {
	it, ok := r.item(item)
	if !ok {
		return nil
	}
	out := make([]exchange.Format, len(it.Order))
	copy(out, it.Order)
	return out
}

func (r *staticReader) SuggestedName(item exchange.Item) string {
	it, ok := r.item(item)
	if !ok {
		return ""
	}
	return it.SuggestedName
}

func (r *staticReader) Read(ctx context.Context, item exchange.Item, format exchange.Format) <-chan exchange.ReadResult {
	out := make(chan exchange.ReadResult, 1)
	it, ok := r.item(item)
	if !ok {
		out <- exchange.ReadResult{Err: fmt.Errorf("item %d: %w", item, exchange.ErrNotAvailable)}
		close(out)
		return out
	}
	data, ok := it.Data[format]
	if !ok {
		out <- exchange.ReadResult{Err: fmt.Errorf("format %q: %w", format, exchange.ErrUnsupportedFormat)}
		close(out)
		return out
	}
	out <- exchange.ReadResult{Data: data}
	close(out)
	return out
}

func (r *staticReader) Close() error {
	return nil
}

// readThrough maps a read-side failure from a source pull into the reader
// taxonomy: cancellations pass through, unsupported formats pass through,
// anything else becomes a retryable TransferError.
func readThrough(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, exchange.ErrCancelled) {
		return exchange.ErrCancelled
	}
	if errors.Is(err, exchange.ErrUnsupportedFormat) || errors.Is(err, exchange.ErrNotAvailable) {
		return err
	}
	return &exchange.TransferError{Cause: err}
}
