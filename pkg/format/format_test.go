package format

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dragclip/dragclip/internal/bridge"
	"github.com/dragclip/dragclip/pkg/exchange"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{5 * 1024 * 1024 * 1024, "5.0 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatSize(tt.bytes))
	}
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		maxLen int
		want   string
	}{
		{"no limit", "hello", 0, "hello"},
		{"under limit", "hello", 10, "hello"},
		{"truncated with ellipsis", "hello world", 8, "hello..."},
		{"tiny limit", "hello", 2, "he"},
		{"multibyte runes", "héllo wörld", 8, "héllo..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateText(tt.text, tt.maxLen))
		})
	}
}

func TestFormatListingEmpty(t *testing.T) {
	f := New(Options{UseColors: false})
	out := f.FormatListing(bridge.NewStaticReader(nil))
	assert.Equal(t, "clipboard is empty", out)
}

func TestFormatListing(t *testing.T) {
	f := New(Options{UseColors: false})
	r := bridge.NewStaticReader([]bridge.StaticItem{{
		SuggestedName: "note.txt",
		Order:         []exchange.Format{exchange.FormatTextHTML, exchange.FormatTextPlain},
		Data: map[exchange.Format][]byte{
			exchange.FormatTextHTML:  []byte("<p>x</p>"),
			exchange.FormatTextPlain: []byte("x"),
		},
	}})

	out := f.FormatListing(r)
	assert.Contains(t, out, "Item 0 (note.txt)")
	assert.Contains(t, out, "* text/html")
	assert.Contains(t, out, "text/plain")
}

func TestFormatListingColors(t *testing.T) {
	f := New(Options{UseColors: true})
	r := bridge.NewStaticReader([]bridge.StaticItem{{
		SuggestedName: "note.txt",
		Order:         []exchange.Format{exchange.FormatTextPlain},
		Data:          map[exchange.Format][]byte{exchange.FormatTextPlain: []byte("x")},
	}})

	out := f.FormatListing(r)
	assert.Contains(t, out, Bold+"Item 0"+Reset)
	assert.Contains(t, out, Dim+"(note.txt)"+Reset)
	assert.Contains(t, out, Cyan+"text/plain"+Reset)
}
