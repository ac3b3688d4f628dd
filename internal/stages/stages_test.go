package stages_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JaimeStill/docket/internal/artifacts"
	"github.com/JaimeStill/docket/internal/bill"
	"github.com/JaimeStill/docket/internal/config"
	"github.com/JaimeStill/docket/internal/layout"
	"github.com/JaimeStill/docket/internal/prompts"
	"github.com/JaimeStill/docket/internal/stages"
	"github.com/JaimeStill/docket/pkg/formatting"
	"github.com/JaimeStill/docket/pkg/storage"
	"github.com/JaimeStill/docket/workflow"
)

var processedAt = time.Date(2025, 11, 3, 9, 30, 0, 0, time.UTC)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// reply produces a model response from the JSON input embedded in a prompt.
type reply func(input map[string]any) string

// fakeModels answers every stage from a reply table and counts calls.
type fakeModels struct {
	mu      sync.Mutex
	replies map[prompts.Stage]reply
	calls   map[prompts.Stage]int
	inputs  map[prompts.Stage][]map[string]any
}

func newFakeModels() *fakeModels {
	return &fakeModels{
		replies: defaultReplies(),
		calls:   make(map[prompts.Stage]int),
		inputs:  make(map[prompts.Stage][]map[string]any),
	}
}

func (f *fakeModels) For(stage prompts.Stage) (stages.Model, error) {
	return &fakeModel{models: f, stage: stage}, nil
}

func (f *fakeModels) set(stage prompts.Stage, r reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[stage] = r
}

func (f *fakeModels) count(stage prompts.Stage) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[stage]
}

func (f *fakeModels) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type fakeModel struct {
	models *fakeModels
	stage  prompts.Stage
}

func (m *fakeModel) Chat(_ context.Context, prompt string) (string, error) {
	input := map[string]any{}
	if i := strings.LastIndex(prompt, "Input:\n\n"); i >= 0 {
		if err := json.Unmarshal([]byte(prompt[i+len("Input:\n\n"):]), &input); err != nil {
			return "", err
		}
	}

	m.models.mu.Lock()
	m.models.calls[m.stage]++
	m.models.inputs[m.stage] = append(m.models.inputs[m.stage], input)
	r, ok := m.models.replies[m.stage]
	m.models.mu.Unlock()

	if !ok {
		return "", fmt.Errorf("no reply for %s", m.stage)
	}
	return r(input), nil
}

func (m *fakeModel) Vision(ctx context.Context, prompt string, _ []string) (string, error) {
	return m.Chat(ctx, prompt)
}

func str(input map[string]any, key string) string {
	s, _ := input[key].(string)
	return s
}

func levels(overrides map[bill.Topic]bill.ImpactLevel) map[string]string {
	out := make(map[string]string)
	for _, t := range bill.Topics() {
		out[string(t)] = string(bill.Neutral)
	}
	for t, l := range overrides {
		out[string(t)] = string(l)
	}
	return out
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// defaultReplies rates the billLayout sections: the first Interpretation is
// a preamble, Commencement is metadata, the repeated Interpretation carries a
// severe privacy impact and Penalties carries high business and low
// innovation impacts.
func defaultReplies() map[prompts.Stage]reply {
	return map[prompts.Stage]reply{
		prompts.StageCategorize: func(in map[string]any) string {
			category := bill.Provision
			switch {
			case strings.HasPrefix(str(in, "content_preview"), "In this Act"):
				category = bill.Preamble
			case str(in, "title") == "Commencement":
				category = bill.Meta
			}
			return mustJSON(map[string]string{"category": string(category), "reasoning": "structure"})
		},
		prompts.StageSummarize: func(in map[string]any) string {
			return "```json\n" + mustJSON(map[string]string{"summary": "Plain summary of " + str(in, "title") + "."}) + "\n```"
		},
		prompts.StageExecutive: func(map[string]any) string {
			return mustJSON(map[string]string{"executive_summary": "The bill licenses cybersecurity providers."})
		},
		prompts.StageAssess: func(in map[string]any) string {
			resp := map[string]any{"reasoning": "rated", "confidence": 0.8}
			if strings.Contains(str(in, "content"), "contravenes") {
				resp["levels"] = levels(map[bill.Topic]bill.ImpactLevel{
					bill.TopicBusiness:   bill.HighNegative,
					bill.TopicInnovation: bill.LowNegative,
				})
				resp["confidence"] = 0.6
			} else {
				resp["levels"] = levels(map[bill.Topic]bill.ImpactLevel{bill.TopicPrivacy: bill.SevereNegative})
			}
			return mustJSON(resp)
		},
		prompts.StageAnalyze: func(in map[string]any) string {
			score := bill.HighNegative
			if str(in, "topic") == string(bill.TopicPrivacy) {
				score = bill.SevereNegative
			}
			return mustJSON(map[string]string{
				"overall_impact":  string(score),
				"impact_analysis": "Analysis of " + str(in, "topic") + ".",
			})
		},
		prompts.StageConcerns: func(in map[string]any) string {
			severity := bill.High
			if str(in, "impact_level") == string(bill.SevereNegative) {
				severity = bill.Critical
			}
			return "Here is the concern: " + mustJSON(map[string]string{
				"title":       "Concern over " + str(in, "provision_title"),
				"description": "Raised by " + str(in, "topic") + ".",
				"severity":    string(severity),
			})
		},
	}
}

type fakeExtractor struct {
	doc   *layout.Document
	calls int
}

func (e *fakeExtractor) Extract(context.Context, string) (*layout.Document, error) {
	e.calls++
	return e.doc, nil
}

func newRuntime(models stages.Models, public storage.System) *stages.Runtime {
	return &stages.Runtime{
		Models:    models,
		Prompts:   prompts.New("", discard()),
		Extractor: &fakeExtractor{doc: billLayout()},
		Preflight: func(string) (int, error) { return 5, nil },
		Publish: config.PublishConfig{
			BaseURL:          "https://bills.example.org",
			Deadline:         "2025-12-01",
			SubmissionMethod: "email",
			VideoDuration:    "0:00",
		},
		Public: public,
		Logger: discard(),
		Now:    func() time.Time { return processedAt },
	}
}

// pipeline wires the ten stages to filesystem storage under a temp root.
type pipeline struct {
	t       *testing.T
	root    string
	models  *fakeModels
	rt      *stages.Runtime
	store   *artifacts.Store
	runner  *workflow.Runner
	doc     workflow.Document
	content string
	public  string
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()

	root := t.TempDir()
	p := &pipeline{
		t:       t,
		root:    root,
		models:  newFakeModels(),
		content: filepath.Join(root, "content"),
		public:  filepath.Join(root, "public", "pdfs"),
	}

	cfg := &storage.Config{Backend: storage.Filesystem}
	output, err := storage.New(cfg, filepath.Join(root, "output"), discard())
	if err != nil {
		t.Fatal(err)
	}
	content, err := storage.New(cfg, p.content, discard())
	if err != nil {
		t.Fatal(err)
	}
	public, err := storage.New(cfg, p.public, discard())
	if err != nil {
		t.Fatal(err)
	}

	p.rt = newRuntime(p.models, public)
	stageTable := stages.Pipeline(p.rt)

	p.store = artifacts.New(output, content, workflow.Formats(stageTable), discard())
	p.runner, err = workflow.NewRunner(stageTable, p.store, discard())
	if err != nil {
		t.Fatal(err)
	}

	src := filepath.Join(root, "pdfs")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(src, "1. Cybersecurity Amendment Bill.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 stub"), 0o644); err != nil {
		t.Fatal(err)
	}
	p.doc = workflow.NewDocument(path)

	return p
}

func (p *pipeline) exists(stage string) bool {
	p.t.Helper()
	ok, err := p.store.Exists(context.Background(), p.doc.Slug, stage)
	if err != nil {
		p.t.Fatal(err)
	}
	return ok
}

func (p *pipeline) record(stage string) *bill.Record {
	p.t.Helper()
	data, err := p.store.Read(context.Background(), p.doc.Slug, stage)
	if err != nil {
		p.t.Fatalf("read %s: %v", stage, err)
	}
	rec, err := bill.Decode(data)
	if err != nil {
		p.t.Fatal(err)
	}
	return rec
}

func TestPipelineStageTable(t *testing.T) {
	table := stages.Pipeline(newRuntime(newFakeModels(), nil))

	want := []string{
		stages.NameExtract, stages.NameSegment, stages.NameCategorize, stages.NameSummarize,
		stages.NameExecutive, stages.NameAssess, stages.NameAnalyze, stages.NameConcerns,
		stages.NameMetadata, stages.NamePublish,
	}
	if len(table) != len(want) {
		t.Fatalf("got %d stages, want %d", len(table), len(want))
	}

	for i, s := range table {
		if s.Name != want[i] {
			t.Errorf("stage %d = %s, want %s", i+1, s.Name, want[i])
		}
		if s.Entry != (i == 0) {
			t.Errorf("stage %s entry = %v", s.Name, s.Entry)
		}
		if s.Validate == nil {
			t.Errorf("stage %s has no validator", s.Name)
		}
	}

	if !table[len(table)-1].Artifact.Published {
		t.Error("publish artifact should be published")
	}
}

func TestPipelineEndToEnd(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	res := p.runner.Run(ctx, p.doc, false)
	if res.Failed() {
		t.Fatalf("run failed at %d (%s): %v", res.FailedStage, res.StageName, res.Err)
	}
	if len(res.Executed) != 10 {
		t.Errorf("executed %v, want all ten stages", res.Executed)
	}

	wantYield := workflow.Yield{
		"pages": 5, "sections": 4, "provisions": 2, "summaries": 2,
		"assessed": 2, "analyses": 2, "concerns": 2, "published": 1,
	}
	for k, v := range wantYield {
		if res.Yield[k] != v {
			t.Errorf("yield[%s] = %d, want %d", k, res.Yield[k], v)
		}
	}

	md, err := os.ReadFile(filepath.Join(p.root, "output", p.doc.Slug+".md"))
	if err != nil {
		t.Fatalf("markdown companion: %v", err)
	}
	if !strings.Contains(string(md), "Penalties") {
		t.Error("markdown companion should carry the extracted text")
	}

	rec := p.record(stages.NameMetadata)
	if rec.Metadata == nil {
		t.Fatal("metadata missing")
	}
	if rec.Metadata.Title != "Cybersecurity Amendment Bill" || rec.Metadata.Slug != "1-cybersecurity-amendment-bill" {
		t.Errorf("metadata title/slug = %q/%q", rec.Metadata.Title, rec.Metadata.Slug)
	}
	if !rec.Metadata.ProcessedAt.Equal(processedAt) {
		t.Errorf("processedAt = %v", rec.Metadata.ProcessedAt)
	}
	if rec.Metadata.SourceURL != "https://bills.example.org/pdfs/"+p.doc.Name {
		t.Errorf("sourceUrl = %q", rec.Metadata.SourceURL)
	}

	data, err := os.ReadFile(filepath.Join(p.content, p.doc.Slug+".json"))
	if err != nil {
		t.Fatalf("published record: %v", err)
	}
	var pub bill.Published
	if err := json.Unmarshal(data, &pub); err != nil {
		t.Fatal(err)
	}
	if err := pub.Validate(); err != nil {
		t.Errorf("published record invalid: %v", err)
	}

	if pub.ID != p.doc.Slug || pub.Summary != "The bill licenses cybersecurity providers." {
		t.Errorf("published id/summary = %q/%q", pub.ID, pub.Summary)
	}
	if len(pub.Provisions) != 2 || pub.Provisions[0].ID != "interpretation-2" || pub.Provisions[1].ID != "penalties" {
		t.Errorf("provisions = %+v", pub.Provisions)
	}

	privacy := pub.Impacts["privacy"]
	if privacy.Score != bill.SevereNegative || privacy.Description == nil {
		t.Errorf("privacy impact = %+v", privacy)
	}
	innovation, ok := pub.Impacts["innovation"]
	if !ok || innovation.Score != bill.Neutral || innovation.Description != nil {
		t.Errorf("innovation impact = %+v, want neutral without description", innovation)
	}
	if _, ok := pub.Impacts["freedomOfSpeech"]; ok {
		t.Error("speech impact should be absent without non-neutral provisions")
	}

	if len(pub.KeyConcerns) != 2 {
		t.Fatalf("concerns = %+v", pub.KeyConcerns)
	}
	if pub.KeyConcerns[0].Severity != bill.Critical || pub.KeyConcerns[1].Severity != bill.High {
		t.Errorf("concerns should be ordered by severity: %+v", pub.KeyConcerns)
	}
	if got := pub.KeyConcerns[1].RelatedImpacts; len(got) != 1 || got[0] != "business" {
		t.Errorf("high concern impacts = %v", got)
	}

	if _, err := os.Stat(filepath.Join(p.public, p.doc.Name)); err != nil {
		t.Errorf("source pdf should be copied to public storage: %v", err)
	}

	calls := p.models.total()
	again := p.runner.Run(ctx, p.doc, false)
	if again.Status != res.Status || len(again.Executed) != 0 || len(again.Skipped) != 10 {
		t.Errorf("second run executed %v, skipped %v", again.Executed, again.Skipped)
	}
	if p.models.total() != calls {
		t.Error("second run should not call the model")
	}
	for k, v := range res.Yield {
		if again.Yield[k] != v {
			t.Errorf("second run yield[%s] = %d, want %d", k, again.Yield[k], v)
		}
	}
}

func TestPipelineHaltsOnUnparseableResponse(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	p.models.set(prompts.StageAssess, func(map[string]any) string { return "impact: severe" })

	res := p.runner.Run(ctx, p.doc, false)
	if !res.Failed() {
		t.Fatal("run should fail")
	}
	if res.FailedStage != 6 || res.StageName != stages.NameAssess {
		t.Errorf("failed at %d (%s), want 6 (%s)", res.FailedStage, res.StageName, stages.NameAssess)
	}
	if !errors.Is(res.Err, formatting.ErrParseFailed) {
		t.Errorf("error = %v, want ErrParseFailed", res.Err)
	}

	for i, name := range []string{
		stages.NameExtract, stages.NameSegment, stages.NameCategorize, stages.NameSummarize, stages.NameExecutive,
	} {
		if !p.exists(name) {
			t.Errorf("artifact %d (%s) should remain", i+1, name)
		}
	}
	for _, name := range []string{stages.NameAssess, stages.NameAnalyze, stages.NamePublish} {
		if p.exists(name) {
			t.Errorf("artifact %s should not exist", name)
		}
	}

	categorized := p.models.count(prompts.StageCategorize)
	p.models.set(prompts.StageAssess, defaultReplies()[prompts.StageAssess])

	res = p.runner.Run(ctx, p.doc, false)
	if res.Failed() {
		t.Fatalf("resumed run failed: %v", res.Err)
	}
	if len(res.Executed) != 5 || res.Executed[0] != stages.NameAssess {
		t.Errorf("resumed run executed %v, want stages 6 through 10", res.Executed)
	}
	if p.models.count(prompts.StageCategorize) != categorized {
		t.Error("resumed run should not recategorize")
	}
}

func TestPipelineReprocessSummaries(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	if res := p.runner.Run(ctx, p.doc, false); res.Failed() {
		t.Fatal(res.Err)
	}

	p.models.set(prompts.StageSummarize, func(in map[string]any) string {
		return mustJSON(map[string]string{"summary": "Revised summary of " + str(in, "title") + "."})
	})

	orch := workflow.NewOrchestrator(p.runner, discard())
	summary, err := orch.Reprocess(ctx, stages.NameSummarize, []workflow.Document{p.doc}, false)
	if err != nil {
		t.Fatal(err)
	}
	if summary.HasFailures() {
		t.Fatalf("reprocess failed: %+v", summary.Failures())
	}

	rec := p.record(stages.NameSummarize)
	for _, s := range rec.Provisions() {
		if !strings.HasPrefix(s.Summary, "Revised summary") {
			t.Errorf("section %s summary = %q", s.ID, s.Summary)
		}
	}

	enriched := p.record(stages.NameMetadata)
	for _, s := range enriched.Provisions() {
		if strings.HasPrefix(s.Summary, "Revised summary") {
			t.Error("reprocess should not touch downstream artifacts")
		}
	}
}

func TestPipelineDryRun(t *testing.T) {
	p := newPipeline(t)

	res := p.runner.DryRun().Run(context.Background(), p.doc, false)
	if res.Status != workflow.StatusComplete {
		t.Fatalf("status = %s, err = %v", res.Status, res.Err)
	}
	if !res.DryRun || len(res.Executed) != 10 {
		t.Errorf("dry run = %v, executed %v", res.DryRun, res.Executed)
	}
	if res.Yield["published"] != 1 {
		t.Errorf("yield = %v", res.Yield)
	}

	for _, s := range p.runner.Stages() {
		if p.exists(s.Name) {
			t.Errorf("dry run wrote the %s artifact", s.Name)
		}
	}
	if _, err := os.Stat(filepath.Join(p.public, p.doc.Name)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("dry run should not copy the source pdf: %v", err)
	}

	var pub bill.Published
	if err := json.Unmarshal(res.Output, &pub); err != nil {
		t.Fatalf("dry run output: %v", err)
	}
	if err := pub.Validate(); err != nil {
		t.Errorf("dry run output invalid: %v", err)
	}
	if pub.ID != p.doc.Slug {
		t.Errorf("published id = %q", pub.ID)
	}
}
