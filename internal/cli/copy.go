package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dragclip/dragclip/pkg/exchange"
)

func newCopyCmd() *cobra.Command {
	var (
		formatID string
		name     string
		withHTML bool
	)

	cmd := &cobra.Command{
		Use:   "copy [text]",
		Short: "Write content to the clipboard",
		Long: `Write content to the clipboard. Text is taken from the arguments,
or from stdin when no arguments are given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			if len(args) > 0 {
				data = []byte(strings.Join(args, " "))
			} else {
				var err error
				data, err = io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
			}

			reps := []exchange.Representation{
				exchange.NewBytes(exchange.Format(formatID), data),
			}
			if withHTML && formatID == string(exchange.FormatTextPlain) {
				text := string(data)
				reps = append(reps, exchange.NewLazy(exchange.FormatTextHTML,
					func(ctx context.Context) ([]byte, error) {
						return []byte("<pre>" + text + "</pre>"), nil
					}))
			}

			provider, err := exchange.NewProvider(reps, exchange.ProviderMeta{
				SuggestedName: name,
			})
			if err != nil {
				return err
			}

			eng, b, err := newEngine()
			if err != nil {
				return err
			}
			defer b.Close()

			if err := eng.WriteClipboard([]*exchange.DataProvider{provider}); err != nil {
				return err
			}
			// size only, clipboard data may be sensitive
			logger.Info("clipboard written",
				zap.Int("bytes", len(data)),
				zap.String("format", formatID))
			return nil
		},
	}

	cmd.Flags().StringVar(&formatID, "format", string(exchange.FormatTextPlain), "format identifier for the content")
	cmd.Flags().StringVar(&name, "name", "", "suggested file name for receivers")
	cmd.Flags().BoolVar(&withHTML, "html", false, "also offer a lazily rendered text/html representation")
	return cmd
}
