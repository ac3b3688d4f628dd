package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/JaimeStill/docket/workflow"
)

// confirm asks the operator to continue and accepts only y or yes.
func confirm(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "Continue? [y/N] ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(out)
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func formatYield(y workflow.Yield) string {
	if len(y) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(y))
	for _, k := range slices.Sorted(maps.Keys(y)) {
		parts = append(parts, fmt.Sprintf("%s=%d", k, y[k]))
	}
	return strings.Join(parts, " ")
}

func failure(r workflow.RunResult) string {
	return fmt.Sprintf("FAILED at stage %d (%s): %v", r.FailedStage, r.StageName, cause(r.Err))
}

// cause strips the StageError prefix, which failure already renders.
func cause(err error) error {
	var se *workflow.StageError
	if errors.As(err, &se) {
		return se.Err
	}
	return err
}

func printRun(out io.Writer, r workflow.RunResult) {
	fmt.Fprintf(out, "Document: %s (%s)\n", r.Document.Name, r.Document.Slug)
	if len(r.Executed) > 0 {
		fmt.Fprintf(out, "Executed: %s\n", strings.Join(r.Executed, ", "))
	}
	if len(r.Skipped) > 0 {
		fmt.Fprintf(out, "Skipped:  %s\n", strings.Join(r.Skipped, ", "))
	}
	fmt.Fprintf(out, "Yield:    %s\n", formatYield(r.Yield))

	switch r.Status {
	case workflow.StatusFailed:
		fmt.Fprintln(out, failure(r))
		return
	case workflow.StatusCancelled:
		fmt.Fprintf(out, "CANCELLED during stage %s\n", r.StageName)
		return
	}

	if r.DryRun {
		fmt.Fprintln(out, "Dry run: no artifacts written")
		if len(r.Output) > 0 {
			fmt.Fprintf(out, "\n%s\n", r.Output)
		}
	}
	fmt.Fprintf(out, "Complete in %s\n", r.Duration.Round(time.Millisecond))
}

func printBatch(out io.Writer, s *workflow.BatchSummary) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DOCUMENT\tSTATUS\tEXECUTED\tYIELD")
	for _, r := range s.Results {
		status := string(r.Status)
		if r.Failed() {
			status = fmt.Sprintf("failed@%d", r.FailedStage)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.Document.Slug, status, len(r.Executed), formatYield(r.Yield))
	}
	for _, d := range s.Excluded {
		fmt.Fprintf(tw, "%s\texcluded\t-\t-\n", d.Slug)
	}
	for _, d := range s.NotRun {
		fmt.Fprintf(tw, "%s\tnot run\t-\t-\n", d.Slug)
	}
	tw.Flush()

	if failures := s.Failures(); len(failures) > 0 {
		fmt.Fprintln(out, "\nFailures:")
		for _, r := range failures {
			fmt.Fprintf(out, "  %s: %s\n", r.Document.Slug, failure(r))
		}
	}

	printTotals(out, s)
}

func printReprocess(out io.Writer, s *workflow.BatchSummary) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DOCUMENT\tRESULT")
	for _, r := range s.Results {
		switch r.Status {
		case workflow.StatusFailed:
			fmt.Fprintf(tw, "%s\tERROR: %v\n", r.Document.Slug, cause(r.Err))
		case workflow.StatusSkipped:
			fmt.Fprintf(tw, "%s\tSKIPPED\n", r.Document.Slug)
		case workflow.StatusCancelled:
			fmt.Fprintf(tw, "%s\tCANCELLED\n", r.Document.Slug)
		default:
			fmt.Fprintf(tw, "%s\t%s\n", r.Document.Slug, formatYield(r.Yield))
		}
	}
	for _, d := range s.NotRun {
		fmt.Fprintf(tw, "%s\tNOT RUN\n", d.Slug)
	}
	tw.Flush()

	printTotals(out, s)
}

func printTotals(out io.Writer, s *workflow.BatchSummary) {
	t := s.Totals
	fmt.Fprintf(out, "\nRun %s: %d total, %d succeeded, %d failed, %d skipped, %d excluded",
		s.RunID, t.Total, t.Succeeded, t.Failed, t.Skipped, t.Excluded)
	if t.Cancelled > 0 {
		fmt.Fprintf(out, ", %d cancelled", t.Cancelled)
	}
	fmt.Fprintf(out, " in %s\n", s.Duration.Round(time.Millisecond))
	if s.DryRun {
		fmt.Fprintln(out, "Dry run: no artifacts written")
	}
	fmt.Fprintf(out, "Yield: %s\n", formatYield(t.Yield))
}

func printStages(out io.Writer, stages []workflow.Stage) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSTAGE\tARTIFACT\tDESCRIPTION")
	for i, s := range stages {
		artifact := "<slug>" + s.Artifact.Suffix
		if s.Artifact.Published {
			artifact += " (published)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, s.Name, artifact, s.Description)
	}
	tw.Flush()
}
