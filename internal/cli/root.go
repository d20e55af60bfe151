// Package cli implements the dragclip command line interface: clipboard
// copy/paste/formats/watch plus a scripted in-process drag demo. It wires
// the configuration, the zap logger and the platform bridge together and
// hands everything to the engine.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dragclip/dragclip/internal/bridge"
	"github.com/dragclip/dragclip/internal/config"
	"github.com/dragclip/dragclip/internal/engine"
)

var (
	// Global flags
	cfgFile  string
	logLevel string
	useJSON  bool

	// Shared resources, set up in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger

	// Version information - set by main
	Version   = "dev"
	BuildTime = "unknown"
	Commit    = "none"
)

var rootCmd = &cobra.Command{
	Use:   "dragclip",
	Short: "Dragclip is a cross-platform data-exchange tool",
	Long: `Dragclip exposes one engine over the system clipboard and
drag-and-drop: multi-format items, lazy payloads, and a session protocol
that works the same on every platform.

The copy/paste/formats/watch commands operate on the clipboard; the drag
command runs a scripted in-process drag-and-drop session.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		logger, err = buildLogger(cfg)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// SetVersionInfo stores the build metadata injected by the linker.
func SetVersionInfo(version, buildTime, commit string) {
	Version = version
	BuildTime = buildTime
	Commit = commit
	rootCmd.Version = version
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is the platform config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&useJSON, "json", false, "output in JSON format")

	rootCmd.AddCommand(
		newCopyCmd(),
		newPasteCmd(),
		newFormatsCmd(),
		newWatchCmd(),
		newDragCmd(),
		newVersionCmd(),
	)
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	if cfg.Log.Format == "console" {
		zcfg.Encoding = "console"
		zcfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	zcfg.OutputPaths = []string{"stderr"}
	return zcfg.Build()
}

// openBridge selects the platform bridge per configuration: the native OS
// clipboard when available, the file-backed bolt store otherwise.
func openBridge() (bridge.Platform, error) {
	switch cfg.Clipboard.Backend {
	case "native":
		return bridge.NewNative(logger.Named("bridge"))
	case "bolt":
		return bridge.NewBolt(cfg.Clipboard.DBPath, logger.Named("bridge"))
	case "auto", "":
		if n, err := bridge.NewNative(logger.Named("bridge")); err == nil {
			return n, nil
		}
		logger.Debug("native clipboard unavailable, using bolt store",
			zap.String("db_path", cfg.Clipboard.DBPath))
		return bridge.NewBolt(cfg.Clipboard.DBPath, logger.Named("bridge"))
	default:
		return nil, fmt.Errorf("unknown clipboard backend %q", cfg.Clipboard.Backend)
	}
}

// newEngine builds the engine over the selected bridge.
func newEngine() (*engine.Engine, bridge.Platform, error) {
	b, err := openBridge()
	if err != nil {
		return nil, nil, err
	}
	eng, err := engine.New(engine.Options{
		Bridge:         b,
		Logger:         logger.Named("engine"),
		Workers:        cfg.Resolve.Workers,
		ResolveTimeout: time.Duration(cfg.Resolve.TimeoutMS) * time.Millisecond,
	})
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	return eng, b, nil
}
