// Package stages implements the ten pipeline stages that turn a bill PDF
// into the published record: extraction, segmentation, the model-backed
// enrichment stages, metadata and publishing.
package stages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/JaimeStill/docket/internal/artifacts"
	"github.com/JaimeStill/docket/internal/bill"
	"github.com/JaimeStill/docket/internal/config"
	"github.com/JaimeStill/docket/internal/prompts"
	"github.com/JaimeStill/docket/pkg/formatting"
	"github.com/JaimeStill/docket/pkg/storage"
	"github.com/JaimeStill/docket/workflow"
)

// Sentinel errors for stage operations.
var (
	ErrSourceInvalid   = errors.New("source document invalid")
	ErrExtractFailed   = errors.New("text extraction failed")
	ErrNoSections      = errors.New("no sections found")
	ErrModelFailed     = errors.New("model call failed")
	ErrInvalidResponse = errors.New("invalid model response")
	ErrPublishFailed   = errors.New("publish failed")
)

// Stage names in pipeline order.
const (
	NameExtract    = "extract"
	NameSegment    = "segment"
	NameCategorize = "categorize"
	NameSummarize  = "summarize"
	NameExecutive  = "executive-summary"
	NameAssess     = "assess-impact"
	NameAnalyze    = "impact-analysis"
	NameConcerns   = "key-concerns"
	NameMetadata   = "metadata"
	NamePublish    = "publish"
)

const noExecutiveSummary = "No executive summary available."

// Runtime bundles the dependencies the stages require.
type Runtime struct {
	Models    Models
	Prompts   *prompts.Library
	Extractor Extractor
	// Preflight checks a source PDF and returns its page count.
	Preflight func(path string) (int, error)
	Extract   config.ExtractConfig
	Publish   config.PublishConfig
	// Public receives source PDF copies. Nil disables the copy.
	Public storage.System
	Logger *slog.Logger
	Now    func() time.Time
}

// NewRuntime assembles a Runtime from configuration and infrastructure.
func NewRuntime(cfg *config.Config, public storage.System, logger *slog.Logger) (*Runtime, error) {
	models := NewAgentModels(cfg)
	lib := prompts.New(cfg.Prompts.Dir, logger)

	extractor, err := NewExtractor(&cfg.Extract, models, lib, logger)
	if err != nil {
		return nil, err
	}

	maxSize := cfg.Pipeline.MaxSourceSizeBytes()

	return &Runtime{
		Models:    models,
		Prompts:   lib,
		Extractor: extractor,
		Preflight: func(path string) (int, error) { return Preflight(path, maxSize) },
		Extract:   cfg.Extract,
		Publish:   cfg.Publish,
		Public:    public,
		Logger:    logger.With("system", "stages"),
		Now:       time.Now,
	}, nil
}

// Pipeline returns the ten-stage table in execution order.
func Pipeline(rt *Runtime) []workflow.Stage {
	return []workflow.Stage{
		extractStage(rt),
		segmentStage(rt),
		recordStage(NameCategorize, "categorize sections", ".categorized.json", rt.categorize, provisionYield),
		recordStage(NameSummarize, "plain-language summaries", ".summarized.json", rt.summarize, summaryYield),
		recordStage(NameExecutive, "executive summary", ".executive.json", rt.executive, nil),
		recordStage(NameAssess, "impact assessment", ".assessed.json", rt.assess, assessedYield),
		recordStage(NameAnalyze, "topic impact analysis", ".analyzed.json", rt.analyze, analysisYield),
		recordStage(NameConcerns, "key concerns", ".concerns.json", rt.concerns, concernYield),
		recordStage(NameMetadata, "metadata enrichment", ".enriched.json", rt.metadata, nil),
		publishStage(rt),
	}
}

type recordFunc func(ctx context.Context, doc workflow.Document, rec *bill.Record) error

// recordStage wraps a function that enriches the Bill Record in place.
func recordStage(name, desc, suffix string, fn recordFunc, yield func(*bill.Record) workflow.Yield) workflow.Stage {
	s := workflow.Stage{
		Name:        name,
		Description: desc,
		Artifact:    artifacts.Format{Suffix: suffix},
		Run: func(ctx context.Context, doc workflow.Document, input []byte) (artifacts.Artifact, error) {
			rec, err := bill.Decode(input)
			if err != nil {
				return artifacts.Artifact{}, err
			}

			if err := fn(ctx, doc, rec); err != nil {
				return artifacts.Artifact{}, err
			}

			data, err := rec.Encode()
			if err != nil {
				return artifacts.Artifact{}, fmt.Errorf("encode record: %w", err)
			}
			return artifacts.Artifact{Data: data}, nil
		},
		Validate: validateRecord,
	}

	if yield != nil {
		s.Yield = func(data []byte) workflow.Yield {
			rec, err := bill.Decode(data)
			if err != nil {
				return nil
			}
			return yield(rec)
		}
	}

	return s
}

func validateRecord(data []byte) error {
	rec, err := bill.Decode(data)
	if err != nil {
		return err
	}
	return rec.Validate()
}

// ask composes the stage prompt for input, sends it to the stage's model
// and parses the JSON response into T.
func ask[T any](ctx context.Context, rt *Runtime, stage prompts.Stage, input any) (T, error) {
	var zero T

	prompt, err := rt.Prompts.Compose(stage, input)
	if err != nil {
		return zero, err
	}

	m, err := rt.Models.For(stage)
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrModelFailed, err)
	}

	content, err := m.Chat(ctx, prompt)
	if err != nil {
		return zero, fmt.Errorf("%w: %s: %w", ErrModelFailed, stage, err)
	}

	return formatting.Parse[T](content)
}

// preview returns at most n characters of s.
func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

func provisionYield(rec *bill.Record) workflow.Yield {
	return workflow.Yield{"provisions": rec.Count(bill.Provision)}
}

func summaryYield(rec *bill.Record) workflow.Yield {
	return workflow.Yield{"summaries": rec.ComputeStatistics().WithSummaries}
}

func assessedYield(rec *bill.Record) workflow.Yield {
	return workflow.Yield{"assessed": rec.ComputeStatistics().WithImpacts}
}

func analysisYield(rec *bill.Record) workflow.Yield {
	return workflow.Yield{"analyses": len(rec.ImpactAnalyses)}
}

func concernYield(rec *bill.Record) workflow.Yield {
	return workflow.Yield{"concerns": len(rec.KeyConcerns)}
}
