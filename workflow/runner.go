package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/JaimeStill/docket/internal/artifacts"
)

const keyArtifact = "artifact"

// Store persists stage artifacts by document slug and stage name.
type Store interface {
	Exists(ctx context.Context, slug, stage string) (bool, error)
	Read(ctx context.Context, slug, stage string) ([]byte, error)
	Write(ctx context.Context, slug, stage string, a artifacts.Artifact) error
}

// Runner sequences the stage table for one document at a time.
type Runner struct {
	stages []Stage
	store  Store
	logger *slog.Logger
	dryRun bool
}

type dryRunKey struct{}

// IsDryRun reports whether ctx belongs to a dry run. Stages with side
// effects beyond their artifact check it before acting.
func IsDryRun(ctx context.Context) bool {
	v, _ := ctx.Value(dryRunKey{}).(bool)
	return v
}

// NewRunner validates the stage table and creates a Runner.
func NewRunner(stages []Stage, store Store, logger *slog.Logger) (*Runner, error) {
	if err := validateStages(stages); err != nil {
		return nil, err
	}

	return &Runner{
		stages: stages,
		store:  store,
		logger: logger.With("system", "workflow"),
	}, nil
}

// DryRun returns a copy of r that executes and validates stages without
// writing artifacts. Each executed artifact still feeds the next stage.
func (r *Runner) DryRun() *Runner {
	c := *r
	c.dryRun = true
	c.logger = r.logger.With("dry_run", true)
	return &c
}

// Stages returns the stage table.
func (r *Runner) Stages() []Stage {
	return r.stages
}

// Stage returns the 1-based index and definition of the named stage.
func (r *Runner) Stage(name string) (int, Stage, error) {
	for i, s := range r.stages {
		if s.Name == name {
			return i + 1, s, nil
		}
	}
	return 0, Stage{}, fmt.Errorf("%w: %s", ErrUnknownStage, name)
}

// run tracks outcomes while the state graph executes.
type run struct {
	result RunResult
}

// Run drives doc through every stage. Stages whose artifact is present are
// skipped and their artifact feeds the next stage, unless force is set, in
// which case every stage executes and overwrites. The run halts at the
// first failing stage; artifacts written by earlier stages are kept. A
// context that is already done yields StatusCancelled without running.
func (r *Runner) Run(ctx context.Context, doc Document, force bool) RunResult {
	start := time.Now()
	logger := r.logger.With("document", doc.Slug)

	rs := &run{result: RunResult{
		Document: doc,
		Status:   StatusComplete,
		DryRun:   r.dryRun,
		Yield:    Yield{},
	}}

	if err := ctx.Err(); err != nil {
		rs.result.Status = StatusCancelled
		rs.result.StageName = r.stages[0].Name
		rs.result.Err = err
		return rs.result
	}

	if r.dryRun {
		ctx = context.WithValue(ctx, dryRunKey{}, true)
	}

	graph, err := r.buildGraph(doc, force, rs, logger)
	if err != nil {
		rs.result.Status = StatusFailed
		rs.result.Err = fmt.Errorf("build graph: %w", err)
		rs.result.Duration = time.Since(start)
		return rs.result
	}

	if _, err := graph.Execute(ctx, state.New(nil)); err != nil && rs.result.Err == nil {
		rs.result.Status = StatusFailed
		rs.result.Err = fmt.Errorf("execute graph: %w", err)
	}

	if rs.result.Failed() && ctx.Err() != nil {
		rs.result.Status = StatusCancelled
		rs.result.FailedStage = 0
		if n := len(rs.result.Executed) + len(rs.result.Skipped); rs.result.StageName == "" && n < len(r.stages) {
			rs.result.StageName = r.stages[n].Name
		}
	}

	rs.result.Duration = time.Since(start)

	switch {
	case rs.result.Status == StatusCancelled:
		logger.WarnContext(ctx, "document cancelled",
			"stage", rs.result.StageName,
			"executed", len(rs.result.Executed),
		)
	case rs.result.Failed():
		logger.ErrorContext(ctx, "document failed",
			"stage", rs.result.StageName,
			"index", rs.result.FailedStage,
			"error", rs.result.Err,
		)
	default:
		logger.InfoContext(ctx, "document complete",
			"executed", len(rs.result.Executed),
			"skipped", len(rs.result.Skipped),
			"duration", rs.result.Duration,
		)
	}

	return rs.result
}

// Rerun forces exactly the named stage for doc, reading its predecessor's
// artifact (or the source document for the entry stage). A missing
// prerequisite yields StatusSkipped and no write. Other stages are not
// touched.
func (r *Runner) Rerun(ctx context.Context, doc Document, name string) RunResult {
	start := time.Now()
	logger := r.logger.With("document", doc.Slug, "stage", name)

	result := RunResult{
		Document:  doc,
		StageName: name,
		DryRun:    r.dryRun,
		Yield:     Yield{},
	}

	index, stage, err := r.Stage(name)
	if err != nil {
		result.Status = StatusFailed
		result.Err = err
		return result
	}

	if err := ctx.Err(); err != nil {
		result.Status = StatusCancelled
		result.Err = err
		return result
	}

	if r.dryRun {
		ctx = context.WithValue(ctx, dryRunKey{}, true)
	}

	input, ok, err := r.prerequisite(ctx, index, doc)
	switch {
	case err != nil:
		result.Status = StatusFailed
		result.FailedStage = index
		result.Err = &StageError{Stage: name, Index: index, Err: err}
	case !ok:
		result.Status = StatusSkipped
		result.Skipped = []string{name}
		logger.InfoContext(ctx, "prerequisite missing, skipped")
	default:
		data, err := r.execute(ctx, stage, doc, input)
		if err != nil {
			result.Status = StatusFailed
			result.FailedStage = index
			result.Err = &StageError{Stage: name, Index: index, Err: err}
			if ctx.Err() != nil {
				result.Status = StatusCancelled
				result.FailedStage = 0
				logger.WarnContext(ctx, "rerun cancelled")
				break
			}
			logger.ErrorContext(ctx, "rerun failed", "error", err)
			break
		}
		result.Status = StatusComplete
		result.Executed = []string{name}
		result.Yield = yield(stage, data)
		if r.dryRun {
			result.Output = data
		}
	}

	result.Duration = time.Since(start)
	return result
}

func (r *Runner) buildGraph(doc Document, force bool, rs *run, logger *slog.Logger) (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("docket-" + doc.Slug)
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	for i, s := range r.stages {
		if err := graph.AddNode(s.Name, r.node(i, doc, force, rs, logger)); err != nil {
			return nil, err
		}
		if i > 0 {
			if err := graph.AddEdge(r.stages[i-1].Name, s.Name, nil); err != nil {
				return nil, err
			}
		}
	}

	if err := graph.SetEntryPoint(r.stages[0].Name); err != nil {
		return nil, err
	}

	if err := graph.SetExitPoint(r.stages[len(r.stages)-1].Name); err != nil {
		return nil, err
	}

	return graph, nil
}

func (r *Runner) node(i int, doc Document, force bool, rs *run, logger *slog.Logger) state.StateNode {
	stage := r.stages[i]
	index := i + 1

	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		data, executed, err := r.step(ctx, i, doc, force, s)
		if err != nil {
			serr := &StageError{Stage: stage.Name, Index: index, Err: err}
			rs.result.Status = StatusFailed
			rs.result.FailedStage = index
			rs.result.StageName = stage.Name
			rs.result.Err = serr
			return s, serr
		}

		y := yield(stage, data)
		rs.result.Yield.Add(y)

		if executed {
			rs.result.Executed = append(rs.result.Executed, stage.Name)
			if r.dryRun {
				rs.result.Output = data
			}
			logger.InfoContext(ctx, "stage executed", "stage", stage.Name, "index", index, "yield", y)
		} else {
			rs.result.Skipped = append(rs.result.Skipped, stage.Name)
			logger.DebugContext(ctx, "stage skipped", "stage", stage.Name, "index", index)
		}

		return s.Set(keyArtifact, data), nil
	})
}

func (r *Runner) step(ctx context.Context, i int, doc Document, force bool, s state.State) ([]byte, bool, error) {
	stage := r.stages[i]

	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	if !force {
		ok, err := r.store.Exists(ctx, doc.Slug, stage.Name)
		if err != nil {
			return nil, false, fmt.Errorf("check artifact: %w", err)
		}
		if ok {
			data, err := r.store.Read(ctx, doc.Slug, stage.Name)
			if err != nil {
				return nil, false, fmt.Errorf("read artifact: %w", err)
			}
			return data, false, nil
		}
	}

	var input []byte
	if !stage.Entry {
		if v, ok := s.Get(keyArtifact); ok {
			input, _ = v.([]byte)
		}
		if input == nil {
			prev, ok, err := r.prerequisite(ctx, i+1, doc)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				return nil, false, fmt.Errorf("%w: %s", ErrInputNotFound, r.stages[i-1].Name)
			}
			input = prev
		}
	}

	data, err := r.execute(ctx, stage, doc, input)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// prerequisite loads the input of the stage at 1-based index. For the
// entry stage it only confirms the source document exists.
func (r *Runner) prerequisite(ctx context.Context, index int, doc Document) ([]byte, bool, error) {
	if index == 1 {
		if _, err := os.Stat(doc.Path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, false, nil
			}
			return nil, false, err
		}
		return nil, true, nil
	}

	prev := r.stages[index-2].Name
	data, err := r.store.Read(ctx, doc.Slug, prev)
	if err != nil {
		if errors.Is(err, artifacts.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read %s artifact: %w", prev, err)
	}
	return data, true, nil
}

func (r *Runner) execute(ctx context.Context, stage Stage, doc Document, input []byte) ([]byte, error) {
	out, err := stage.Run(ctx, doc, input)
	if err != nil {
		return nil, err
	}

	if stage.Validate != nil {
		if err := stage.Validate(out.Data); err != nil {
			return nil, err
		}
	}

	if r.dryRun {
		r.logger.InfoContext(ctx, "dry run, artifact not written",
			"document", doc.Slug,
			"stage", stage.Name,
			"bytes", len(out.Data),
		)
		return out.Data, nil
	}

	if err := r.store.Write(ctx, doc.Slug, stage.Name, out); err != nil {
		return nil, fmt.Errorf("persist artifact: %w", err)
	}

	return out.Data, nil
}

func yield(stage Stage, data []byte) Yield {
	if stage.Yield == nil {
		return Yield{}
	}
	y := stage.Yield(data)
	if y == nil {
		return Yield{}
	}
	return y
}
