package exchange

import (
	"context"
	"io"
)

// Producer supplies the bytes for a lazy representation. It is invoked by
// the engine on a worker goroutine, never on the goroutine that created it,
// and at most once per distinct request.
type Producer func(ctx context.Context) ([]byte, error)

// StreamProducer opens the byte stream for a virtual-stream representation.
// The returned reader is drained and closed by the engine.
type StreamProducer func(ctx context.Context) (io.ReadCloser, error)

// LengthUnknown declares a virtual stream of unknown total length.
const LengthUnknown int64 = -1

type repKind int

const (
	repBytes repKind = iota
	repLazy
	repStream
)

// Representation pairs one format identifier with one data source: bytes
// already in memory, a lazy producer, or a virtual stream with a declared
// total length. The format is immutable after creation.
type Representation struct {
	format  Format
	kind    repKind
	data    []byte
	produce Producer
	stream  StreamProducer
	length  int64
}

// NewBytes returns a representation whose value is already in memory.
func NewBytes(format Format, data []byte) Representation {
	return Representation{format: format, kind: repBytes, data: data}
}

// NewLazy returns a representation whose value is produced on demand.
func NewLazy(format Format, produce Producer) Representation {
	return Representation{format: format, kind: repLazy, produce: produce}
}

// NewStream returns a virtual-stream representation. length declares the
// total byte count the stream will yield, or LengthUnknown.
func NewStream(format Format, length int64, open StreamProducer) Representation {
	return Representation{format: format, kind: repStream, stream: open, length: length}
}

// Format returns the representation's format identifier.
func (r Representation) Format() Format {
	return r.format
}

// IsStream reports whether the representation is a virtual stream.
func (r Representation) IsStream() bool {
	return r.kind == repStream
}

// Length returns the declared stream length, or LengthUnknown. For
// immediate bytes it is the byte count.
func (r Representation) Length() int64 {
	switch r.kind {
	case repBytes:
		return int64(len(r.data))
	case repStream:
		return r.length
	default:
		return LengthUnknown
	}
}

// Open starts the representation's byte stream. For immediate and lazy
// values the stream is a reader over the fully produced bytes.
func (r Representation) Open(ctx context.Context) (io.ReadCloser, error) {
	switch r.kind {
	case repStream:
		rc, err := r.stream(ctx)
		if err != nil {
			return nil, &ResolutionError{Format: r.format, Cause: err}
		}
		if r.length >= 0 {
			return newLengthChecked(rc, r.length, r.format), nil
		}
		return rc, nil
	default:
		data, err := r.Bytes(ctx)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytesReader(data)), nil
	}
}

// Bytes resolves the representation to a fully buffered value. Stream
// representations are drained; a stream that yields more or fewer bytes
// than declared fails resolution.
func (r Representation) Bytes(ctx context.Context) ([]byte, error) {
	switch r.kind {
	case repBytes:
		return r.data, nil
	case repLazy:
		data, err := r.produce(ctx)
		if err != nil {
			return nil, &ResolutionError{Format: r.format, Cause: err}
		}
		return data, nil
	default:
		rc, err := r.Open(ctx)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, &ResolutionError{Format: r.format, Cause: err}
		}
		return data, nil
	}
}
