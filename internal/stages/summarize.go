package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/docket/internal/bill"
	"github.com/JaimeStill/docket/internal/prompts"
	"github.com/JaimeStill/docket/workflow"
)

type summarizeInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

// summarize writes a plain-language summary for every provision.
func (rt *Runtime) summarize(ctx context.Context, doc workflow.Document, rec *bill.Record) error {
	provisions := rec.Provisions()

	for _, s := range provisions {
		resp, err := ask[summarizeResponse](ctx, rt, prompts.StageSummarize, summarizeInput{
			Title:   s.Title,
			Content: s.RawText,
		})
		if err != nil {
			return fmt.Errorf("section %q: %w", s.ID, err)
		}

		summary := strings.TrimSpace(resp.Summary)
		if summary == "" {
			return fmt.Errorf("%w: section %q: empty summary", ErrInvalidResponse, s.ID)
		}
		s.Summary = summary
	}

	rt.Logger.InfoContext(ctx, "provisions summarized", "document", doc.Slug, "count", len(provisions))
	return nil
}
