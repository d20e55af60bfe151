// Package exchange defines the data model shared by the clipboard and
// drag-and-drop paths: multi-format, possibly lazy payloads on the write
// side (DataProvider) and a snapshot view over an external source on the
// read side (DataReader). One DataProvider models one clipboard entry or
// one dragged item.
package exchange

import (
	"fmt"
)

// ProviderMeta carries optional per-item metadata.
type ProviderMeta struct {
	// SuggestedName is the file name a receiver should use when the item
	// is materialized as a file.
	SuggestedName string

	// VirtualFile marks the item as a virtual file: its payload exists
	// only as a stream produced on demand, not as a real file on disk.
	VirtualFile bool
}

// DataProvider is an ordered set of representations for one item. The order
// is the negotiation preference order. A provider is immutable once handed
// to a session or clipboard write; only its lazy producers run later, driven
// by external requests.
type DataProvider struct {
	reps     []Representation
	byFormat map[Format]int
	meta     ProviderMeta
}

// NewProvider builds a provider from representations in preference order.
// It fails with ErrInvalidFormat if the list is empty or contains two
// representations with the same format.
func NewProvider(reps []Representation, meta ProviderMeta) (*DataProvider, error) {
	if len(reps) == 0 {
		return nil, fmt.Errorf("provider needs at least one representation: %w", ErrInvalidFormat)
	}
	byFormat := make(map[Format]int, len(reps))
	for i, rep := range reps {
		if _, dup := byFormat[rep.Format()]; dup {
			return nil, fmt.Errorf("duplicate format %q: %w", rep.Format(), ErrInvalidFormat)
		}
		byFormat[rep.Format()] = i
	}
	p := &DataProvider{
		reps:     make([]Representation, len(reps)),
		byFormat: byFormat,
		meta:     meta,
	}
	copy(p.reps, reps)
	return p, nil
}

// NewTextProvider is a convenience constructor for a single text/plain item.
func NewTextProvider(text string) *DataProvider {
	p, _ := NewProvider([]Representation{NewBytes(FormatTextPlain, []byte(text))}, ProviderMeta{})
	return p
}

// Formats returns the offered format identifiers in preference order.
func (p *DataProvider) Formats() []Format {
	out := make([]Format, len(p.reps))
	for i, rep := range p.reps {
		out[i] = rep.Format()
	}
	return out
}

// Has reports whether the provider offers the given format.
func (p *DataProvider) Has(format Format) bool {
	_, ok := p.byFormat[format]
	return ok
}

// Representation returns the representation for a format, if offered.
func (p *DataProvider) Representation(format Format) (Representation, bool) {
	i, ok := p.byFormat[format]
	if !ok {
		return Representation{}, false
	}
	return p.reps[i], true
}

// Meta returns the provider's metadata.
func (p *DataProvider) Meta() ProviderMeta {
	return p.meta
}
