package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/docket/internal/bill"
	"github.com/JaimeStill/docket/internal/prompts"
	"github.com/JaimeStill/docket/workflow"
)

type analyzeInput struct {
	BillContext string             `json:"bill_context"`
	Topic       bill.Topic         `json:"topic"`
	BillTitle   string             `json:"bill_title"`
	Provisions  []analyzeProvision `json:"provisions"`
}

type analyzeProvision struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	RawText     string           `json:"rawText"`
	ImpactLevel bill.ImpactLevel `json:"impact_level"`
}

type analyzeResponse struct {
	OverallImpact  bill.ImpactLevel `json:"overall_impact"`
	ImpactAnalysis string           `json:"impact_analysis"`
}

// analyze writes a narrative for each topic that has severe or high
// provisions. Topics without any are left out of the record.
func (rt *Runtime) analyze(ctx context.Context, doc workflow.Document, rec *bill.Record) error {
	analyses := make(map[bill.Topic]bill.ImpactAnalysis)

	for _, topic := range bill.Topics() {
		var significant []analyzeProvision
		var severe, high []string

		for _, s := range rec.Provisions() {
			if s.Impact == nil {
				continue
			}
			level := s.Impact.Levels[topic]
			switch {
			case level.Severe():
				severe = append(severe, s.ID)
			case level.High():
				high = append(high, s.ID)
			default:
				continue
			}
			significant = append(significant, analyzeProvision{
				ID:          s.ID,
				Title:       s.Title,
				RawText:     s.RawText,
				ImpactLevel: level,
			})
		}

		if len(significant) == 0 {
			continue
		}

		resp, err := ask[analyzeResponse](ctx, rt, prompts.StageAnalyze, analyzeInput{
			BillContext: billContext(rec),
			Topic:       topic,
			BillTitle:   workflow.Stem(doc.Path),
			Provisions:  significant,
		})
		if err != nil {
			return fmt.Errorf("topic %q: %w", topic, err)
		}

		if !resp.OverallImpact.Valid() {
			return fmt.Errorf("%w: topic %q: unknown overall impact %q", ErrInvalidResponse, topic, resp.OverallImpact)
		}
		analysis := strings.TrimSpace(resp.ImpactAnalysis)
		if analysis == "" {
			return fmt.Errorf("%w: topic %q: empty impact analysis", ErrInvalidResponse, topic)
		}

		related := severe
		if len(related) == 0 {
			related = high
		}

		analyses[topic] = bill.ImpactAnalysis{
			Score:              resp.OverallImpact,
			Analysis:           analysis,
			AffectedProvisions: len(significant),
			RelatedProvisions:  related,
		}
	}

	rec.ImpactAnalyses = analyses
	rt.Logger.InfoContext(ctx, "topics analyzed", "document", doc.Slug, "count", len(analyses))
	return nil
}

func billContext(rec *bill.Record) string {
	if rec.ExecutiveSummary == "" {
		return noExecutiveSummary
	}
	return rec.ExecutiveSummary
}
