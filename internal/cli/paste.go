package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dragclip/dragclip/pkg/exchange"
	"github.com/dragclip/dragclip/pkg/format"
)

func newPasteCmd() *cobra.Command {
	var (
		formatID string
		itemIdx  int
		raw      bool
	)

	cmd := &cobra.Command{
		Use:   "paste",
		Short: "Read content from the clipboard",
		Long: `Read content from the clipboard. Without --format the first
offered format of the item is used.`,
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

			items := reader.Items()
			if len(items) == 0 {
				return fmt.Errorf("clipboard is empty")
			}
			if itemIdx < 0 || itemIdx >= len(items) {
				return fmt.Errorf("item %d out of range, clipboard has %d item(s)", itemIdx, len(items))
			}
			item := items[itemIdx]

			formats := reader.Formats(item)
			if len(formats) == 0 {
				return fmt.Errorf("clipboard item offers no formats")
			}
			chosen := formats[0]
			if formatID != "" {
				chosen = exchange.Format(formatID)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			data, err := exchange.ReadAll(ctx, reader, item, chosen)
			if err != nil {
				if exchange.IsRetryable(err) {
					return fmt.Errorf("transfer failed (retryable): %w", err)
				}
				return err
			}

			if raw {
				os.Stdout.Write(data)
				return nil
			}
			if useJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"format": string(chosen),
					"size":   len(data),
					"data":   string(data),
				})
			}
			fmt.Printf("Format: %s\n", chosen)
			fmt.Printf("Size: %s\n", format.FormatSize(int64(len(data))))
			fmt.Printf("%s\n", data)
			return nil
		},
	}

	cmd.Flags().StringVar(&formatID, "format", "", "format identifier to read")
	cmd.Flags().IntVar(&itemIdx, "item", 0, "item index to read")
	cmd.Flags().BoolVar(&raw, "raw", false, "output raw content without metadata")
	return cmd
}
