package workflow

import (
	"time"

	"github.com/google/uuid"
)

// Status is the outcome of one document's run.
type Status string

// Run outcomes.
const (
	StatusComplete  Status = "complete"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	StatusCancelled Status = "cancelled"
)

// RunResult describes one document's pass through the stage table.
type RunResult struct {
	Document Document
	Status   Status
	// FailedStage is the 1-based index of the failing stage, or 0.
	FailedStage int
	// StageName is the failing stage's name, or the target of a rerun.
	StageName string
	Err       error
	Executed  []string
	Skipped   []string
	Yield     Yield
	Duration  time.Duration
	// DryRun marks a run that wrote no artifacts.
	DryRun bool
	// Output is the last artifact executed during a dry run.
	Output []byte
}

// Failed reports whether the run halted on a stage error.
func (r RunResult) Failed() bool {
	return r.Status == StatusFailed
}

// Totals aggregates results across a batch.
type Totals struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
	Excluded  int
	Cancelled int
	Yield     Yield
}

// BatchSummary reports a batch or reprocess run.
type BatchSummary struct {
	RunID    uuid.UUID
	Stage    string
	DryRun   bool
	Results  []RunResult
	Excluded []Document
	// NotRun holds documents never started because the run was cancelled.
	NotRun   []Document
	Totals   Totals
	Duration time.Duration
}

// Failures returns the results that halted on a stage error.
func (b *BatchSummary) Failures() []RunResult {
	var out []RunResult
	for _, r := range b.Results {
		if r.Failed() {
			out = append(out, r)
		}
	}
	return out
}

// HasFailures reports whether any document failed.
func (b *BatchSummary) HasFailures() bool {
	return b.Totals.Failed > 0
}

// Interrupted reports whether cancellation cut the run short.
func (b *BatchSummary) Interrupted() bool {
	return b.Totals.Cancelled > 0
}

func summarize(b *BatchSummary) {
	t := Totals{
		Total:     len(b.Results) + len(b.Excluded) + len(b.NotRun),
		Excluded:  len(b.Excluded),
		Cancelled: len(b.NotRun),
		Yield:     Yield{},
	}

	for _, r := range b.Results {
		switch r.Status {
		case StatusComplete:
			t.Succeeded++
		case StatusFailed:
			t.Failed++
		case StatusSkipped:
			t.Skipped++
		case StatusCancelled:
			t.Cancelled++
		}
		t.Yield.Add(r.Yield)
	}

	b.Totals = t
}
