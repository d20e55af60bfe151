// Package format renders clipboard and drop snapshots for terminal output.
package format

import (
	"fmt"
	"strings"

	"github.com/dragclip/dragclip/pkg/exchange"
)

// Options controls formatting behavior
type Options struct {
	UseColors bool
}

// Formatter renders DataReader snapshots
type Formatter struct {
	options Options
}

// New creates a new formatter with the given options
func New(opts Options) *Formatter {
	return &Formatter{options: opts}
}

// FormatListing renders the items and formats of a reader snapshot, one
// line per format, without fetching any bytes.
func (f *Formatter) FormatListing(r exchange.DataReader) string {
	items := r.Items()
	if len(items) == 0 {
		return ColorizeIf("clipboard is empty", Gray, f.options.UseColors)
	}

	var parts []string
	for i, item := range items {
		header := BoldIf(fmt.Sprintf("Item %d", i), f.options.UseColors)
		if name := r.SuggestedName(item); name != "" {
			header += " " + DimIf("("+name+")", f.options.UseColors)
		}
		parts = append(parts, header)
		for j, format := range r.Formats(item) {
			marker := "  "
			if j == 0 {
				// first format is the source's preferred representation
				marker = ColorizeIf("* ", Green, f.options.UseColors)
			}
			parts = append(parts, "  "+marker+ColorizeIf(string(format), Cyan, f.options.UseColors))
		}
	}
	return strings.Join(parts, "\n")
}
