package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"flowboard/internal/codec"
	"flowboard/internal/runner"
	"flowboard/internal/ui"
)

func runCmd() *cobra.Command {
	var (
		dir      string
		delay    time.Duration
		maxSteps int
	)

	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Walk a flow document from its intro block",
		Long: "Print a flow the way it reads: from the first intro block along the first\n" +
			"outgoing connection of every block. Without a file, pick one of the .json\n" +
			"documents in --dir.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				files, err := runner.ListDocuments(dir)
				if err != nil {
					return err
				}
				f, err := runner.Select(os.Stdin, os.Stdout, files)
				if err != nil {
					return err
				}
				path = f.Path
			}

			doc, err := readDocument(path)
			if err != nil {
				return err
			}
			err = runner.Run(ctx, os.Stdout, doc, runner.Options{MaxSteps: maxSteps, Delay: delay})
			switch {
			case errors.Is(err, runner.ErrNoIntro):
				ui.Warn.Println("  No intro block found. Add an INTRO block to start the flow.")
				return nil
			case err != nil:
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to pick a document from")
	cmd.Flags().DurationVar(&delay, "delay", 300*time.Millisecond, "Pause after each block")
	cmd.Flags().IntVar(&maxSteps, "max-steps", runner.DefaultMaxSteps, "Stop after this many blocks")
	return cmd
}

func readDocument(path string) (codec.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return codec.Document{}, err
	}
	doc, err := codec.Decode(raw)
	if err != nil {
		return codec.Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
