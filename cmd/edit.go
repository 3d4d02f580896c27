package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"flowboard/internal/app"
	"flowboard/internal/canvas"
	"flowboard/internal/service"
	"flowboard/internal/tui"
	"flowboard/internal/ui"
)

func tuiCmd() *cobra.Command {
	var open string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Edit a flow in the terminal",
		Long: "Edit a flow in the terminal with the mouse.\n\n" +
			"Drag blocks by their border, drag from ● to another block's ○ to connect,\n" +
			"drag the background to pan and scroll to zoom. Press ? for keys.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			// The alternate screen owns stdout; keep logs out of it.
			logFile, err := redirectLog()
			if err != nil {
				return err
			}
			defer logFile.Close()

			scene := canvas.NewScene()
			editor, backend, err := openEditor(ctx, scene, nil)
			if err != nil {
				return err
			}
			defer backend.Close()

			if open != "" {
				raw, err := os.ReadFile(open)
				if err != nil {
					return err
				}
				if _, err := editor.Import(ctx, raw); err != nil {
					return fmt.Errorf("open %s: %w", open, err)
				}
			}

			bg, err := app.StartBackground(ctx, cfg, backend, editor)
			if err != nil {
				return err
			}
			defer bg.Stop()

			return tui.Run(ctx, editor, scene, cfg.Export.Dir)
		},
	}

	cmd.Flags().StringVar(&open, "open", "", "Start from this flow document")
	return cmd
}

// redirectLog sends the standard logger to <data dir>/flowboard.log.
func redirectLog() (*os.File, error) {
	if err := os.MkdirAll(cfg.App.DataDir, 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(cfg.App.DataDir, "flowboard.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	log.SetOutput(f)
	return f, nil
}

func desktopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "desktop",
		Short: "Open the desktop app",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunDesktop(cfg)
		},
	}
}

func mcpCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the flow editor to AI agents over MCP (stdio)",
		Long: "Serve a headless editor over the Model Context Protocol on stdin/stdout.\n\n" +
			"Destructive tools (delete_block, clear_canvas, restore_snapshot) wait for\n" +
			"approval from the desktop app or `flowboard approvals` unless --yes is set.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			return app.ServeMCP(ctx, cfg, yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Approve destructive tools without asking")
	return cmd
}

// headlessEditor opens an editor that draws nothing, for one-shot commands.
func headlessEditor(ctx context.Context) (*service.Editor, *app.Backend, error) {
	return openEditor(ctx, canvas.NopRenderer{}, nil)
}

// announce prints a one-line result the way every command does.
func announce(ok bool, format string, args ...any) {
	fmt.Printf("  %s %s\n", ui.StatusIcon(ok), fmt.Sprintf(format, args...))
}
