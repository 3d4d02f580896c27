package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"flowboard/internal/service"
	"flowboard/internal/ui"
)

func snapshotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "snapshots",
		Aliases: []string{"snap"},
		Short:   "List or restore autosaved flows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listSnapshots(20)
		},
	}

	var limit int
	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved snapshots, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listSnapshots(limit)
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "Show at most this many")

	var out string
	restore := &cobra.Command{
		Use:   "restore <id>",
		Short: "Write a snapshot out as a flow document",
		Long: "Write a snapshot out as a flow document. Open it with `flowboard tui --open`\n" +
			"or import it in the desktop app. The revision counter is not changed.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			editor, backend, err := headlessEditor(ctx)
			if err != nil {
				return err
			}
			defer backend.Close()
			if backend.Snapshots == nil {
				return service.ErrNoSnapshots
			}

			snap, err := backend.Snapshots.GetSnapshot(ctx, args[0])
			if err != nil {
				return err
			}
			if err := editor.RestoreSnapshot(ctx, snap.ID); err != nil {
				return err
			}
			doc, err := editor.Document(ctx)
			if err != nil {
				return err
			}
			if out == "" {
				out = filepath.Join(cfg.Export.Dir, "flowboard-snapshot-"+shortID(snap.ID)+".json")
			}
			if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
				return err
			}
			if err := os.WriteFile(out, []byte(snap.DocumentJSON), 0644); err != nil {
				return err
			}
			announce(true, "Wrote %s (%d blocks, %d connections)", out, len(doc.Blocks), len(doc.Connections))
			return nil
		},
	}
	restore.Flags().StringVarP(&out, "output", "o", "", "Output path")

	cmd.AddCommand(list, restore)
	return cmd
}

func listSnapshots(limit int) error {
	ctx := context.Background()
	editor, backend, err := headlessEditor(ctx)
	if err != nil {
		return err
	}
	defer backend.Close()

	snaps, err := editor.Snapshots(ctx, limit)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Println("  No snapshots yet")
		return nil
	}

	ui.Banner("snapshots")
	var rows [][]string
	for _, s := range snaps {
		rows = append(rows, []string{
			s.ID,
			s.CreatedAt.Local().Format("2006-01-02 15:04"),
			s.Source,
			"v" + strconv.Itoa(s.Revision),
			strconv.Itoa(s.BlockCount),
			s.Label,
		})
	}
	ui.Table([]string{"ID", "Saved", "Source", "Rev", "Blocks", "Label"}, rows)
	fmt.Println()
	fmt.Println(ui.Subtle.Sprint("  Run `flowboard snapshots restore <id>` to write one out"))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
