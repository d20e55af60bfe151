package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dragclip/dragclip/internal/bridge"
	"github.com/dragclip/dragclip/internal/engine"
	"github.com/dragclip/dragclip/pkg/exchange"
	"github.com/dragclip/dragclip/pkg/format"
)

func newWatchCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the clipboard for changes",
		Long: `Watch the clipboard and print every change. The native backend
uses OS change notifications; the bolt backend is polled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, b, err := newEngine()
			if err != nil {
				return err
			}
			defer b.Close()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				cancel()
			}()

			logger.Info("watching clipboard", zap.String("bridge", b.Name()))

			var changes <-chan struct{}
			if n, ok := b.(*bridge.Native); ok {
				changes = n.Watch(ctx)
			} else {
				changes = pollClipboard(ctx, eng, interval)
			}

			var last []byte
			for {
				select {
				case <-ctx.Done():
					return nil
				case _, ok := <-changes:
					if !ok {
						return nil
					}
				}
				data, err := snapshotText(ctx, eng)
				if err != nil {
					logger.Warn("failed to read clipboard", zap.Error(err))
					continue
				}
				if bytes.Equal(data, last) {
					continue
				}
				last = data
				fmt.Printf("[%s] %s  %s\n",
					time.Now().Format(time.TimeOnly),
					format.FormatSize(int64(len(data))),
					format.TruncateText(string(data), 64))
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", time.Second, "polling interval for backends without change notification")
	return cmd
}

// pollClipboard emits a tick per interval; the caller dedupes unchanged
// content, which keeps the poller itself stateless.
func pollClipboard(ctx context.Context, eng *engine.Engine, interval time.Duration) <-chan struct{} {
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out
}

// snapshotText reads the first item's first format for change detection.
func snapshotText(ctx context.Context, eng *engine.Engine) ([]byte, error) {
	reader, err := eng.ReadClipboard()
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	items := reader.Items()
	if len(items) == 0 {
		return nil, nil
	}
	formats := reader.Formats(items[0])
	if len(formats) == 0 {
		return nil, nil
	}
	readCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return exchange.ReadAll(readCtx, reader, items[0], formats[0])
}
