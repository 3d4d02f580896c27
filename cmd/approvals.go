package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"flowboard/internal/app"
	"flowboard/internal/storage"
	"flowboard/internal/ui"
)

func approvalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approvals",
		Short: "Approve or reject destructive MCP tool calls",
		Long: "A standalone `flowboard mcp` server waits for a person before deleting blocks,\n" +
			"clearing the canvas or restoring snapshots. Resolve those requests here when\n" +
			"the desktop app is not running.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listApprovals()
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "List pending requests",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return listApprovals()
			},
		},
		&cobra.Command{
			Use:   "approve <id>",
			Short: "Let a pending tool call go ahead",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return resolveApproval(args[0], true)
			},
		},
		&cobra.Command{
			Use:   "reject <id>",
			Short: "Refuse a pending tool call",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return resolveApproval(args[0], false)
			},
		},
	)
	return cmd
}

func withApprovals(fn func(ctx context.Context, store *storage.ApprovalStore) error) error {
	ctx := context.Background()
	backend, err := app.OpenBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()
	if backend.Approvals == nil {
		return fmt.Errorf("approvals need the sqlite database, driver is %q", cfg.Store.Driver)
	}
	return fn(ctx, backend.Approvals)
}

func listApprovals() error {
	return withApprovals(func(ctx context.Context, store *storage.ApprovalStore) error {
		pending, err := store.ListPending(ctx)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Println("  No pending requests")
			return nil
		}
		ui.Banner("pending approvals")
		var rows [][]string
		for _, p := range pending {
			rows = append(rows, []string{p.ID, p.Tool, p.Description, p.CreatedAt.Local().Format("15:04:05")})
		}
		ui.Table([]string{"ID", "Tool", "Description", "Asked"}, rows)
		return nil
	})
}

func resolveApproval(id string, approved bool) error {
	return withApprovals(func(ctx context.Context, store *storage.ApprovalStore) error {
		if err := store.Resolve(ctx, id, approved); err != nil {
			return err
		}
		if approved {
			announce(true, "Approved %s", id)
		} else {
			announce(false, "Rejected %s", id)
		}
		return nil
	})
}
