package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"flowboard/internal/app"
	"flowboard/internal/codec"
	"flowboard/internal/ui"
)

func revisionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revision",
		Short: "Show or change the export revision counter",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showRevision()
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the last exported revision",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return showRevision()
			},
		},
		&cobra.Command{
			Use:   "set <n>",
			Short: "Set the counter so the next export is n+1",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 0 {
					return fmt.Errorf("revision must be a non-negative integer, got %q", args[0])
				}
				return withRevisions(func(ctx context.Context, revs *codec.Revisions) error {
					if err := revs.Set(ctx, n); err != nil {
						return err
					}
					announce(true, "Revision set to %d, next export is v%d", n, n+1)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Forget the counter so the next export is v1",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withRevisions(func(ctx context.Context, revs *codec.Revisions) error {
					if err := revs.Reset(ctx); err != nil {
						return err
					}
					announce(true, "Revision reset, next export is v1")
					return nil
				})
			},
		},
	)
	return cmd
}

func showRevision() error {
	return withRevisions(func(ctx context.Context, revs *codec.Revisions) error {
		n, err := revs.Current(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("  %s %d  %s\n", ui.Brand.Sprint("revision"), n,
			ui.Subtle.Sprintf("key %s in %s, next file %s", revs.Key(), storeName(), codec.FileName(n+1)))
		return nil
	})
}

// withRevisions opens the configured store for the duration of fn.
func withRevisions(fn func(ctx context.Context, revs *codec.Revisions) error) error {
	ctx := context.Background()
	backend, err := app.OpenBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()
	return fn(ctx, codec.NewRevisions(backend.KV, cfg.App.Identity))
}

func storeName() string {
	if cfg.Store.Driver == "" {
		return "sqlite"
	}
	return cfg.Store.Driver
}
