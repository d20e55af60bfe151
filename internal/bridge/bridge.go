// Package bridge declares the boundary between the data-exchange engine and
// OS-native clipboard and drag-and-drop APIs. The engine depends only on the
// Platform interface; each operating system gets its own implementation,
// selected at startup. Native API failures are wrapped into the exchange
// error taxonomy here and never leak as implementation-specific types.
package bridge

import (
	"context"
	"errors"

	"github.com/dragclip/dragclip/pkg/exchange"
)

// ErrDragUnsupported is reported by clipboard-only backends when a drag
// session is started on them.
var ErrDragUnsupported = errors.New("drag sessions not supported by this bridge")

// DataSource is the engine-side callback surface a bridge uses to pull data
// when the OS requests a specific format. The bridge holds only the session
// id and this source, never the session itself. Resolve is safe to call
// from any goroutine; the engine runs the producer on its worker pool and
// answers exchange.ErrUnsupportedFormat without invoking anything when the
// format is not offered.
type DataSource interface {
	// Items returns the number of items behind the source.
	Items() int

	// Formats returns the formats offered by one item, in preference order.
	Formats(item exchange.Item) []exchange.Format

	// SuggestedName returns the item's suggested file name, or "".
	SuggestedName(item exchange.Item) string

	// Resolve produces the bytes for one item and format.
	Resolve(ctx context.Context, item exchange.Item, format exchange.Format) ([]byte, error)
}

// DropEvent carries an incoming OS drop to ReadDrop. For the in-process
// bridges shipped with the engine the payload is the dragging session's own
// source; an OS bridge would carry its native drop handle instead.
type DropEvent struct {
	Source DataSource
}

// Platform is the contract every OS-specific bridge implementation must
// satisfy. The engine's correctness does not depend on which implementation
// is behind it.
type Platform interface {
	// Name identifies the backend in logs and diagnostics.
	Name() string

	// BeginDrag makes a drag session visible to the OS. The bridge keeps
	// the id and source for the session's lifetime and pulls data through
	// the source when the OS requests a format.
	BeginDrag(sessionID string, source DataSource) error

	// WriteClipboard replaces the clipboard contents with the source's
	// items. Whether the bridge promotes eagerly or registers lazy
	// promises is backend-specific.
	WriteClipboard(source DataSource) error

	// ReadClipboard opens a snapshot reader over the current clipboard.
	ReadClipboard() (exchange.DataReader, error)

	// ReadDrop opens a snapshot reader over an incoming drop.
	ReadDrop(ev DropEvent) (exchange.DataReader, error)

	// Close releases backend resources.
	Close() error
}

// WrapNative converts a native API failure into the exchange taxonomy.
// Errors already belonging to the taxonomy pass through unchanged.
func WrapNative(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrDragUnsupported) ||
		errors.Is(err, exchange.ErrNotAvailable) ||
		errors.Is(err, exchange.ErrCancelled) ||
		errors.Is(err, exchange.ErrUnsupportedFormat) ||
		exchange.IsRetryable(err) {
		return err
	}
	var re *exchange.ResolutionError
	if errors.As(err, &re) {
		return err
	}
	return &exchange.TransferError{Cause: err}
}
