package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

// errFailed signals that the command completed but at least one document
// failed. Details have already been printed.
var errFailed = errors.New("one or more documents failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "docket",
		Short: "Bill analysis pipeline",
		Long: `Docket turns legislative bill PDFs into structured, enriched records
for publication: extraction, segmentation, model-backed analysis and
a web-ready transform, one resumable stage at a time.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRunCmd(),
		newBatchCmd(),
		newReprocessCmd(),
		newStagesCmd(),
	)

	return root
}
