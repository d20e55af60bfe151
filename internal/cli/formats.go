package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/dragclip/dragclip/pkg/format"
)

func newFormatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formats",
		Short: "List clipboard items and their formats",
		Long:  `List the items on the clipboard and the format identifiers each offers, without fetching any data.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, b, err := newEngine()
			if err != nil {
				return err
			}
			defer b.Close()

			reader, err := eng.ReadClipboard()
			if err != nil {
				return err
			}
			defer reader.Close()

			if useJSON {
				type item struct {
					SuggestedName string   `json:"suggested_name,omitempty"`
					Formats       []string `json:"formats"`
				}
				var out []item
				for _, it := range reader.Items() {
					entry := item{SuggestedName: reader.SuggestedName(it)}
					for _, f := range reader.Formats(it) {
						entry.Formats = append(entry.Formats, string(f))
					}
					out = append(out, entry)
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			f := format.New(format.Options{
				UseColors: isatty.IsTerminal(os.Stdout.Fd()),
			})
			fmt.Println(f.FormatListing(reader))
			return nil
		},
	}
	return cmd
}
