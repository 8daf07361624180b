// Command tenderbatch acquires the bidding terms of every tender in an ID
// list, extracts them to markdown and records progress in a checkpoint so
// that an interrupted run resumes where it stopped.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Cortexa-LLC/mcp/src/tenderdocs/batch"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// runOptions are the file paths accepted on the command line. Empty values
// leave the configured ones in place.
type runOptions struct {
	configPath string
	ids        string
	checkpoint string
	dataset    string
}

func newRootCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "tenderbatch",
		Short: "Acquire and extract tender documents for a list of tender IDs",
		Long: `Reads the tender ID list, skips IDs already recorded as processed in
the checkpoint and, for each remaining ID, downloads the bidding terms,
normalizes them to PDF, extracts page text and tables as markdown and
appends a dataset row. Interrupting the run (Ctrl-C) saves the checkpoint
and exits cleanly.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd.Context(), cmd, opts)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (default: environment only)")
	cmd.Flags().StringVar(&opts.ids, "ids", "", "tender ID list (.txt, .csv or .xlsx)")
	cmd.Flags().StringVar(&opts.checkpoint, "checkpoint", "", "checkpoint file")
	cmd.Flags().StringVar(&opts.dataset, "dataset", "", "dataset file (.csv or .xlsx)")

	cmd.AddCommand(newCleanCmd(), newVersionCmd())
	return cmd
}

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean <export.xlsx|export.csv> <output.csv>",
		Short: "Keep only the rows of a portal export whose ID licitación is numeric",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := batch.CleanTenderList(args[0], args[1])
			if err != nil {
				return err
			}
			cmd.Printf("kept %d tenders in %s\n", n, args[1])
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("tenderbatch version %s\n", version)
		},
	}
}

func printSummary(cmd *cobra.Command, s batch.Summary) {
	state := "completed"
	if s.Interrupted {
		state = "interrupted"
	}
	cmd.Printf("run %s %s: %d processed, %d failed, %d already done (%d IDs)\n",
		s.RunID, state, s.Processed, s.Failed, s.Skipped, s.Total)
}
