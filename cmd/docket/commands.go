package main

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/docket/workflow"
)

func newRunCmd() *cobra.Command {
	var force, dryRun bool

	cmd := &cobra.Command{
		Use:   "run <pdf|name>",
		Short: "Run one document through every stage",
		Long: `Run one document through the stage table. Stages whose artifact already
exists are skipped unless --force is set. The argument is a path to a PDF
or a file name resolved against the configured source directory. With
--dry-run every stage executes and validates but nothing is written; the
last executed artifact is printed instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			doc, err := workflow.Resolve(a.cfg.Pipeline.SourceDir, args[0])
			if err != nil {
				return err
			}

			runner := a.runner
			if dryRun {
				runner = runner.DryRun()
			}

			res := runner.Run(cmd.Context(), doc, force)
			printRun(cmd.OutOrStdout(), res)

			switch res.Status {
			case workflow.StatusFailed:
				return errFailed
			case workflow.StatusCancelled:
				return interrupted(cmd.Context())
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Re-execute every stage, overwriting artifacts")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Execute and validate stages without writing artifacts")
	return cmd
}

func newBatchCmd() *cobra.Command {
	var (
		force       bool
		dryRun      bool
		yes         bool
		exclude     []string
		excludeFile string
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run every source document through the pipeline",
		Long: `Run every PDF in the source directory through the stage table. A failing
document is reported and the batch continues with the next one. Slugs in
the configured exclude list, --exclude flags and --exclude-file are held
back.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			docs, err := a.documents()
			if err != nil {
				return err
			}

			excluded := slices.Concat(a.cfg.Pipeline.Exclude, exclude)
			if excludeFile != "" {
				fromFile, err := loadExclusions(excludeFile)
				if err != nil {
					return err
				}
				excluded = append(excluded, fromFile...)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Documents: %d  Excluded: %d  Force: %v  Dry run: %v\n", len(docs), countExcluded(docs, excluded), force, dryRun)

			if !yes && !confirm(cmd.InOrStdin(), out) {
				fmt.Fprintln(out, "Aborted.")
				return nil
			}

			summary := a.orchestrator.RunBatch(cmd.Context(), docs, workflow.BatchOptions{
				Force:   force,
				Exclude: excluded,
				DryRun:  dryRun,
			})
			printBatch(out, summary)

			return outcome(cmd.Context(), summary)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Re-execute every stage of every document")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Execute and validate stages without writing artifacts")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().StringSliceVarP(&exclude, "exclude", "x", nil, "Document slug to hold back (repeatable)")
	cmd.Flags().StringVar(&excludeFile, "exclude-file", "", "YAML file with an exclude list of slugs")
	return cmd
}

func newReprocessCmd() *cobra.Command {
	var yes, dryRun bool

	cmd := &cobra.Command{
		Use:   "reprocess <stage>",
		Short: "Force one stage to rerun for every document",
		Long: `Rerun exactly one stage for every document whose preceding artifact
exists. Earlier and later artifacts are left untouched; documents without
the prerequisite are reported as skipped. With --dry-run the stage runs
and validates but its artifact is not replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			index, stage, err := a.runner.Stage(args[0])
			if err != nil {
				return err
			}

			docs, err := a.documents()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Stage %d (%s): %s\nDocuments: %d  Dry run: %v\n", index, stage.Name, stage.Description, len(docs), dryRun)

			if !yes && !confirm(cmd.InOrStdin(), out) {
				fmt.Fprintln(out, "Aborted.")
				return nil
			}

			summary, err := a.orchestrator.Reprocess(cmd.Context(), stage.Name, docs, dryRun)
			if err != nil {
				return err
			}
			printReprocess(out, summary)

			return outcome(cmd.Context(), summary)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run the stage without replacing its artifact")
	return cmd
}

func newStagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "List the stage table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			printStages(cmd.OutOrStdout(), a.runner.Stages())
			return nil
		},
	}
}

// outcome maps a batch summary to the command error. Failures take
// precedence over an interrupted run.
func outcome(ctx context.Context, s *workflow.BatchSummary) error {
	switch {
	case s.HasFailures():
		return errFailed
	case s.Interrupted():
		return interrupted(ctx)
	}
	return nil
}

func interrupted(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("interrupted: %w", err)
	}
	return errors.New("interrupted")
}

func countExcluded(docs []workflow.Document, exclude []string) int {
	n := 0
	for _, d := range docs {
		if slices.Contains(exclude, d.Slug) {
			n++
		}
	}
	return n
}
