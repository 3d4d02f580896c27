package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"flowboard/internal/app"
	"flowboard/internal/canvas"
	"flowboard/internal/config"
	"flowboard/internal/service"
	"flowboard/internal/ui"
)

var version = "0.3.0"

var (
	cfgPath string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "flowboard",
	Short: "flowboard — node-link diagram editor",
	Long: ui.Brand.Sprint("flowboard") + " — lay out intro, body and conclusion blocks and wire them into a flow\n" +
		ui.Subtle.Sprint("Edit in the terminal or the desktop app, let agents edit over MCP, export versioned JSON"),
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
}

func init() {
	rootCmd.SetVersionTemplate("flowboard {{ .Version }}\n")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file (default "+config.Path()+")")

	rootCmd.AddCommand(
		tuiCmd(),
		desktopCmd(),
		mcpCmd(),
		runCmd(),
		inspectCmd(),
		validateCmd(),
		pngCmd(),
		newCmd(),
		revisionCmd(),
		snapshotsCmd(),
		approvalsCmd(),
		configCmd(),
	)
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		ui.Bad.Fprintf(os.Stderr, "flowboard: %v\n", err)
	}
	return err
}

func loadConfig() error {
	if cfgPath == "" {
		cfg = config.Load()
		return nil
	}
	c, err := config.LoadFrom(cfgPath)
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

// signalContext is cancelled on Ctrl+C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// openEditor opens the configured backend and an editor drawing into r.
// Callers close the backend.
func openEditor(ctx context.Context, r canvas.Renderer, emitter service.EventEmitter) (*service.Editor, *app.Backend, error) {
	backend, err := app.OpenBackend(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	editor, err := backend.Editor(cfg, r, emitter)
	if err != nil {
		backend.Close()
		return nil, nil, fmt.Errorf("create editor: %w", err)
	}
	return editor, backend, nil
}
