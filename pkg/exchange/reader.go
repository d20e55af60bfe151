package exchange

import (
	"context"
)

// Item is an opaque handle to one item in a DataReader's snapshot.
type Item int64

// ReadResult is the single value delivered for one DataReader.Read call.
// Err distinguishes ErrNotAvailable, ErrCancelled and TransferError; a nil
// Err means Data holds the item's bytes in the requested format.
type ReadResult struct {
	Data []byte
	Err  error
}

// DataReader is the read-side view over an external clipboard or drop
// source. The item and format listing is a snapshot taken when the reader
// was opened; it does not observe concurrent mutation of the source. Only
// byte retrieval is asynchronous.
type DataReader interface {
	// Items returns the snapshot's item handles, in source order.
	Items() []Item

	// Formats returns the format identifiers available for an item,
	// without fetching any bytes.
	Formats(item Item) []Format

	// SuggestedName returns the file name suggested by the source for the
	// item, or "" if the source provides none.
	SuggestedName(item Item) string

	// Read fetches the item's bytes in the given format. The returned
	// channel delivers exactly one ReadResult and is then closed; the
	// fetch may involve cross-process OS round-trips, so it never blocks
	// the caller directly.
	Read(ctx context.Context, item Item, format Format) <-chan ReadResult

	// Close releases the snapshot and any native resources behind it.
	Close() error
}

// ReadAll is a convenience wrapper that blocks on a Read until the result
// arrives or ctx is done.
func ReadAll(ctx context.Context, r DataReader, item Item, format Format) ([]byte, error) {
	select {
	case res := <-r.Read(ctx, item, format):
		return res.Data, res.Err
	case <-ctx.Done():
		return nil, ErrCancelled
	}
}
