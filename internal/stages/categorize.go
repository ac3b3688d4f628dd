package stages

import (
	"context"
	"fmt"

	"github.com/JaimeStill/docket/internal/bill"
	"github.com/JaimeStill/docket/internal/prompts"
	"github.com/JaimeStill/docket/workflow"
)

const categorizePreview = 400

type categorizeInput struct {
	Title          string `json:"title"`
	ContentPreview string `json:"content_preview"`
}

type categorizeResponse struct {
	Category  bill.Category `json:"category"`
	Reasoning string        `json:"reasoning"`
}

// categorize assigns every section a category from its title and the
// opening of its text.
func (rt *Runtime) categorize(ctx context.Context, doc workflow.Document, rec *bill.Record) error {
	for i := range rec.Sections {
		s := &rec.Sections[i]

		resp, err := ask[categorizeResponse](ctx, rt, prompts.StageCategorize, categorizeInput{
			Title:          s.Title,
			ContentPreview: preview(s.RawText, categorizePreview),
		})
		if err != nil {
			return fmt.Errorf("section %q: %w", s.ID, err)
		}

		if !resp.Category.Valid() {
			return fmt.Errorf("%w: section %q: unknown category %q", ErrInvalidResponse, s.ID, resp.Category)
		}

		s.Category = &bill.Categorization{Type: resp.Category, Reasoning: resp.Reasoning}
	}

	rt.Logger.InfoContext(ctx, "sections categorized",
		"document", doc.Slug,
		"provisions", rec.Count(bill.Provision),
		"preambles", rec.Count(bill.Preamble),
		"metadata", rec.Count(bill.Meta),
	)

	return nil
}
