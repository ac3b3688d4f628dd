package stages

import (
	"context"
	"fmt"
	"math"

	"github.com/JaimeStill/docket/internal/bill"
	"github.com/JaimeStill/docket/internal/prompts"
	"github.com/JaimeStill/docket/workflow"
)

type assessInput struct {
	BillTitle string `json:"bill_title"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Summary   string `json:"summary"`
}

type assessResponse struct {
	Levels     map[bill.Topic]bill.ImpactLevel `json:"levels"`
	Reasoning  string                          `json:"reasoning"`
	Confidence *float64                        `json:"confidence"`
}

// assess rates every provision against the four topics.
func (rt *Runtime) assess(ctx context.Context, doc workflow.Document, rec *bill.Record) error {
	title := workflow.Stem(doc.Path)
	provisions := rec.Provisions()

	for _, s := range provisions {
		resp, err := ask[assessResponse](ctx, rt, prompts.StageAssess, assessInput{
			BillTitle: title,
			Title:     s.Title,
			Content:   s.RawText,
			Summary:   s.Summary,
		})
		if err != nil {
			return fmt.Errorf("section %q: %w", s.ID, err)
		}

		impact, err := resp.assessment()
		if err != nil {
			return fmt.Errorf("%w: section %q: %w", ErrInvalidResponse, s.ID, err)
		}
		s.Impact = impact
	}

	rt.Logger.InfoContext(ctx, "provisions assessed", "document", doc.Slug, "count", len(provisions))
	return nil
}

func (r assessResponse) assessment() (*bill.ImpactAssessment, error) {
	levels := make(map[bill.Topic]bill.ImpactLevel, len(bill.Topics()))

	for _, topic := range bill.Topics() {
		level, ok := r.Levels[topic]
		if !ok {
			return nil, fmt.Errorf("missing level for %q", topic)
		}
		if !level.Valid() {
			return nil, fmt.Errorf("unknown level %q for %q", level, topic)
		}
		levels[topic] = level
	}

	for topic := range r.Levels {
		if !topic.Valid() {
			return nil, fmt.Errorf("unknown topic %q", topic)
		}
	}

	if r.Confidence == nil {
		return nil, fmt.Errorf("missing confidence")
	}
	c := *r.Confidence
	if math.IsNaN(c) || c < 0 || c > 1 {
		return nil, fmt.Errorf("confidence %v outside [0, 1]", c)
	}

	return &bill.ImpactAssessment{
		Levels:     levels,
		Reasoning:  r.Reasoning,
		Confidence: c,
	}, nil
}
