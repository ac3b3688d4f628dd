package workflow

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
)

// BatchOptions controls a batch run.
type BatchOptions struct {
	// Force re-executes every stage of every document.
	Force bool
	// Exclude holds document slugs that are skipped entirely.
	Exclude []string
	// DryRun executes and validates stages without writing artifacts.
	DryRun bool
}

// Orchestrator runs the Runner over many documents. A failed document is
// recorded and the batch proceeds with the next one. Cancellation stops
// the batch; documents not yet started are reported as NotRun.
type Orchestrator struct {
	runner *Runner
	logger *slog.Logger
}

// NewOrchestrator creates an Orchestrator over runner.
func NewOrchestrator(runner *Runner, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		runner: runner,
		logger: logger.With("system", "orchestrator"),
	}
}

// RunBatch runs every document not excluded through the full stage table.
func (o *Orchestrator) RunBatch(ctx context.Context, docs []Document, opts BatchOptions) *BatchSummary {
	start := time.Now()
	summary := &BatchSummary{RunID: uuid.New(), DryRun: opts.DryRun}
	logger := o.logger.With("run_id", summary.RunID)

	logger.InfoContext(ctx, "batch started",
		"documents", len(docs),
		"force", opts.Force,
		"dry_run", opts.DryRun,
		"exclude", len(opts.Exclude),
	)

	runner := o.runner
	if opts.DryRun {
		runner = runner.DryRun()
	}

	for i, doc := range docs {
		if ctx.Err() != nil {
			summary.NotRun = append(summary.NotRun, docs[i:]...)
			logger.WarnContext(ctx, "batch cancelled", "not_run", len(docs)-i)
			break
		}

		if slices.Contains(opts.Exclude, doc.Slug) {
			summary.Excluded = append(summary.Excluded, doc)
			logger.InfoContext(ctx, "document excluded", "document", doc.Slug)
			continue
		}

		summary.Results = append(summary.Results, runner.Run(ctx, doc, opts.Force))
	}

	summarize(summary)
	summary.Duration = time.Since(start)

	logger.InfoContext(ctx, "batch complete",
		"succeeded", summary.Totals.Succeeded,
		"failed", summary.Totals.Failed,
		"excluded", summary.Totals.Excluded,
		"cancelled", summary.Totals.Cancelled,
		"duration", summary.Duration,
	)

	return summary
}

// Reprocess force-reruns only the named stage for every document that has
// the artifact of the preceding stage. Documents without it are reported as
// skipped. Returns ErrUnknownStage when the stage is not in the table.
func (o *Orchestrator) Reprocess(ctx context.Context, stage string, docs []Document, dryRun bool) (*BatchSummary, error) {
	if _, _, err := o.runner.Stage(stage); err != nil {
		return nil, err
	}

	runner := o.runner
	if dryRun {
		runner = runner.DryRun()
	}

	start := time.Now()
	summary := &BatchSummary{RunID: uuid.New(), Stage: stage, DryRun: dryRun}
	logger := o.logger.With("run_id", summary.RunID, "stage", stage)

	logger.InfoContext(ctx, "reprocess started", "documents", len(docs), "dry_run", dryRun)

	for i, doc := range docs {
		if ctx.Err() != nil {
			summary.NotRun = append(summary.NotRun, docs[i:]...)
			logger.WarnContext(ctx, "reprocess cancelled", "not_run", len(docs)-i)
			break
		}
		summary.Results = append(summary.Results, runner.Rerun(ctx, doc, stage))
	}

	summarize(summary)
	summary.Duration = time.Since(start)

	logger.InfoContext(ctx, "reprocess complete",
		"succeeded", summary.Totals.Succeeded,
		"failed", summary.Totals.Failed,
		"skipped", summary.Totals.Skipped,
		"cancelled", summary.Totals.Cancelled,
		"duration", summary.Duration,
	)

	return summary, nil
}
