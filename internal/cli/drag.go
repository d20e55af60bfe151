package cli

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dragclip/dragclip/internal/bridge"
	"github.com/dragclip/dragclip/internal/engine"
	"github.com/dragclip/dragclip/pkg/exchange"
)

// printObserver prints each drag lifecycle event as it is delivered.
type printObserver struct{}

func (printObserver) TargetEntered(ev engine.DropEvent) {
	fmt.Printf("entered %s at %v\n", ev.Target, ev.Position)
}

func (printObserver) TargetMoved(ev engine.DropEvent) {
	fmt.Printf("moved over %s to %v\n", ev.Target, ev.Position)
}

func (printObserver) TargetLeft(ev engine.DropEvent) {
	fmt.Printf("left %s\n", ev.Target)
}

func (printObserver) Dropped(ev engine.DropEvent, op engine.Op) {
	fmt.Printf("dropped on %s (%s)\n", ev.Target, op)
}

func newDragCmd() *cobra.Command {
	var (
		text    string
		outcome string
	)

	cmd := &cobra.Command{
		Use:   "drag",
		Short: "Run a scripted in-process drag-and-drop session",
		Long: `Run a drag-and-drop session against the in-process bridge: a text
item with a lazily rendered HTML representation is dragged over a target,
then dropped, rejected or cancelled depending on --outcome. The received
data is printed for an accepted drop.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mem := bridge.NewMemory(logger.Named("bridge"))
			eng, err := engine.New(engine.Options{
				Bridge:         mem,
				Logger:         logger.Named("engine"),
				Workers:        cfg.Resolve.Workers,
				ResolveTimeout: time.Duration(cfg.Resolve.TimeoutMS) * time.Millisecond,
			})
			if err != nil {
				return err
			}
			eng.RegisterObserver(printObserver{})

			provider, err := exchange.NewProvider([]exchange.Representation{
				exchange.NewBytes(exchange.FormatTextPlain, []byte(text)),
				exchange.NewLazy(exchange.FormatTextHTML, func(ctx context.Context) ([]byte, error) {
					return []byte("<pre>" + text + "</pre>"), nil
				}),
			}, exchange.ProviderMeta{})
			if err != nil {
				return err
			}

			session, err := eng.BeginDrag([]*exchange.DataProvider{provider},
				engine.OpMask(engine.OpCopy)|engine.OpMask(engine.OpMove))
			if err != nil {
				return err
			}
			id := session.ID()

			const target = "demo-target"
			if err := eng.TargetEntered(id, target, image.Pt(10, 10)); err != nil {
				return err
			}
			if err := eng.TargetMoved(id, target, image.Pt(42, 42)); err != nil {
				return err
			}

			switch outcome {
			case "accept":
				err = eng.DropAccepted(id, target, engine.OpCopy, []engine.Request{
					{Item: 0, Format: exchange.FormatTextPlain},
				})
			case "reject":
				err = eng.DropRejected(id)
			case "cancel":
				err = eng.Cancel(id)
			default:
				return fmt.Errorf("unknown outcome %q (accept, reject, cancel)", outcome)
			}
			if err != nil {
				return err
			}

			<-session.Done()
			mem.EndDrag(id)
			if serr := session.Err(); serr != nil {
				return serr
			}

			if outcome == "accept" {
				reader := session.DropReader()
				defer reader.Close()
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				data, err := exchange.ReadAll(ctx, reader, 0, exchange.FormatTextPlain)
				if err != nil {
					return err
				}
				fmt.Printf("received: %s\n", data)
			}
			logger.Info("session finished",
				zap.String("session", id),
				zap.String("state", session.State().String()))
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "hello from dragclip", "text payload for the dragged item")
	cmd.Flags().StringVar(&outcome, "outcome", "accept", "session outcome: accept, reject or cancel")
	return cmd
}
