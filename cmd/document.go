package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"flowboard/internal/codec"
	"flowboard/internal/export"
	"flowboard/internal/runner"
	"flowboard/internal/service"
	"flowboard/internal/storage"
	"flowboard/internal/ui"
)

// scratchEditor loads a document into an editor whose revision counter lives
// in memory, so inspecting never touches the configured store.
func scratchEditor(ctx context.Context, raw []byte) (*service.Editor, codec.Document, error) {
	editor, err := service.NewEditor(service.EditorOptions{
		Identity:      cfg.App.Identity,
		ProjectPrefix: cfg.App.ProjectPrefix,
		KV:            storage.NewMemoryKV(),
	})
	if err != nil {
		return nil, codec.Document{}, err
	}
	doc, err := editor.Import(ctx, raw)
	if err != nil {
		return nil, codec.Document{}, err
	}
	return editor, doc, nil
}

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "List the blocks and connections of a flow document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			editor, doc, err := scratchEditor(context.Background(), raw)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			state := editor.State()

			ui.Banner(doc.Meta.ProjectName)
			fmt.Printf("  %s %s   %s %s\n\n",
				ui.Subtle.Sprint("version"), doc.Meta.Version,
				ui.Subtle.Sprint("created"), doc.Meta.CreatedAt)

			var rows [][]string
			for _, b := range state.Blocks {
				rows = append(rows, []string{
					strconv.Itoa(b.ID),
					ui.Kind(string(b.Kind)),
					b.Title,
					b.Color.Hex(),
					fmt.Sprintf("%.0f,%.0f", b.Position.X, b.Position.Y),
					state.Views[b.ID].Summary,
				})
			}
			ui.Table([]string{"ID", "Kind", "Title", "Color", "Position", "Connections"}, rows)
			fmt.Printf("\n  %d blocks, %d connections\n", len(state.Blocks), len(state.Connections))

			if steps, err := runner.Trace(doc, 0); err == nil {
				fmt.Printf("  %s %d blocks from intro to end\n", ui.Subtle.Sprint("path"), len(steps))
			}
			return nil
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check that flow documents can be imported",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				doc, err := readDocument(path)
				if err == nil {
					_, err = codec.Validate(doc)
				}
				if err != nil {
					announce(false, "%s  %s", path, ui.Subtle.Sprint(err.Error()))
					failed++
					continue
				}
				announce(true, "%s  %s", path, ui.Subtle.Sprintf("%d blocks, %d connections", len(doc.Blocks), len(doc.Connections)))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d documents invalid", failed, len(args))
			}
			return nil
		},
	}
}

func pngCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "png <file> <out.png>",
		Short: "Render a flow document to a PNG image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			if err := export.SavePNG(args[1], doc); err != nil {
				return err
			}
			announce(true, "Wrote %s", args[1])
			return nil
		},
	}
}

func newCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Write an empty flow document",
		Long: "Write an empty flow document at the next revision, the same file an export\n" +
			"of an empty canvas produces.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			editor, backend, err := headlessEditor(ctx)
			if err != nil {
				return err
			}
			defer backend.Close()

			doc, raw, err := editor.Export(ctx)
			if err != nil {
				return err
			}
			if out == "" {
				rev, _ := doc.Revision()
				out = filepath.Join(cfg.Export.Dir, codec.FileName(rev))
			}
			if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
				return err
			}
			if err := os.WriteFile(out, raw, 0644); err != nil {
				return err
			}
			announce(true, "Wrote %s (%s)", out, doc.Meta.ProjectName)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "Output path (default <export dir>/flowboard-flow-v<rev>.json)")
	return cmd
}
