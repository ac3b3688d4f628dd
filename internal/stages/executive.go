package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/docket/internal/bill"
	"github.com/JaimeStill/docket/internal/prompts"
	"github.com/JaimeStill/docket/workflow"
)

const preamblePreview = 500

type executiveInput struct {
	BillTitle  string          `json:"bill_title"`
	Preambles  []executivePart `json:"preambles"`
	Provisions []executivePart `json:"provisions"`
}

type executivePart struct {
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
	Summary string `json:"summary,omitempty"`
}

type executiveResponse struct {
	ExecutiveSummary string `json:"executive_summary"`
}

// executive writes the bill's executive summary from its preambles and
// summarized provisions. A record with no provisions is left unchanged.
func (rt *Runtime) executive(ctx context.Context, doc workflow.Document, rec *bill.Record) error {
	input := executiveInput{BillTitle: workflow.Stem(doc.Path)}

	for _, s := range rec.Sections {
		if s.Category == nil {
			continue
		}
		switch {
		case s.Category.Type == bill.Preamble:
			input.Preambles = append(input.Preambles, executivePart{
				Title:   s.Title,
				Content: preview(s.RawText, preamblePreview),
			})
		case s.IsProvision() && s.Summary != "":
			input.Provisions = append(input.Provisions, executivePart{
				Title:   s.Title,
				Summary: s.Summary,
			})
		}
	}

	if len(input.Provisions) == 0 {
		rt.Logger.WarnContext(ctx, "no summarized provisions, executive summary skipped", "document", doc.Slug)
		return nil
	}

	resp, err := ask[executiveResponse](ctx, rt, prompts.StageExecutive, input)
	if err != nil {
		return err
	}

	summary := strings.TrimSpace(resp.ExecutiveSummary)
	if summary == "" {
		return fmt.Errorf("%w: empty executive summary", ErrInvalidResponse)
	}

	rec.ExecutiveSummary = summary
	return nil
}
