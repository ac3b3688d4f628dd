package stages

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/JaimeStill/docket/internal/bill"
	"github.com/JaimeStill/docket/internal/prompts"
	"github.com/JaimeStill/docket/pkg/formatting"
	"github.com/JaimeStill/docket/workflow"
)

type concernInput struct {
	BillContext     string           `json:"bill_context"`
	Topic           bill.Topic       `json:"topic"`
	Title           string           `json:"provision_title"`
	RawText         string           `json:"provision_raw_text"`
	Summary         string           `json:"provision_summary"`
	ImpactReasoning string           `json:"impact_reasoning"`
	ImpactLevel     bill.ImpactLevel `json:"impact_level"`
}

type concernResponse struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Severity    bill.Severity `json:"severity"`
}

type concernCandidate struct {
	section *bill.Section
	topic   bill.Topic
	level   bill.ImpactLevel
}

// concerns raises one key concern per provision with a severe-negative or
// high-negative level. Severe provisions come first, then high ones by
// descending confidence; the result is ordered by severity.
func (rt *Runtime) concerns(ctx context.Context, doc workflow.Document, rec *bill.Record) error {
	severe, high := concernCandidates(rec)
	candidates := slices.Concat(severe, high)

	slugs := formatting.NewSlugger()
	concerns := make([]bill.KeyConcern, 0, len(candidates))

	for i, c := range candidates {
		resp, err := ask[concernResponse](ctx, rt, prompts.StageConcerns, concernInput{
			BillContext:     billContext(rec),
			Topic:           c.topic,
			Title:           c.section.Title,
			RawText:         c.section.RawText,
			Summary:         c.section.Summary,
			ImpactReasoning: c.section.Impact.Reasoning,
			ImpactLevel:     c.level,
		})
		if err != nil {
			return fmt.Errorf("section %q: %w", c.section.ID, err)
		}

		if !resp.Severity.Valid() {
			return fmt.Errorf("%w: section %q: unknown severity %q", ErrInvalidResponse, c.section.ID, resp.Severity)
		}
		title := strings.TrimSpace(resp.Title)
		if title == "" {
			return fmt.Errorf("%w: section %q: empty concern title", ErrInvalidResponse, c.section.ID)
		}

		impacts := []bill.Topic{}
		if _, ok := rec.ImpactAnalyses[c.topic]; ok {
			impacts = append(impacts, c.topic)
		}

		concerns = append(concerns, bill.KeyConcern{
			ID:                slugs.Next(title, fmt.Sprintf("concern-%d", i+1)),
			Title:             title,
			Severity:          resp.Severity,
			Description:       strings.TrimSpace(resp.Description),
			RelatedProvisions: []string{c.section.ID},
			RelatedImpacts:    impacts,
		})
	}

	slices.SortStableFunc(concerns, func(a, b bill.KeyConcern) int {
		return cmp.Compare(a.Severity.Rank(), b.Severity.Rank())
	})

	rec.KeyConcerns = concerns
	rt.Logger.InfoContext(ctx, "key concerns generated",
		"document", doc.Slug,
		"severe", len(severe),
		"high", len(high),
	)
	return nil
}

// concernCandidates picks, per provision, the first topic rated
// severe-negative, else the first rated high-negative.
func concernCandidates(rec *bill.Record) (severe, high []concernCandidate) {
	for _, s := range rec.Provisions() {
		if s.Impact == nil {
			continue
		}

		var sev, hi *concernCandidate
		for _, topic := range bill.Topics() {
			switch level := s.Impact.Levels[topic]; {
			case level == bill.SevereNegative && sev == nil:
				sev = &concernCandidate{section: s, topic: topic, level: level}
			case level == bill.HighNegative && hi == nil:
				hi = &concernCandidate{section: s, topic: topic, level: level}
			}
		}

		switch {
		case sev != nil:
			severe = append(severe, *sev)
		case hi != nil:
			high = append(high, *hi)
		}
	}

	slices.SortStableFunc(high, func(a, b concernCandidate) int {
		return cmp.Compare(b.section.Impact.Confidence, a.section.Impact.Confidence)
	})

	return severe, high
}
