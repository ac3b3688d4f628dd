package bill

import (
	"fmt"
	"math"
)

// Validate checks the record's structural invariants and that every
// relatedProvisions and relatedImpacts reference resolves within it.
// Section ids must be unique and non-empty, and indexes must ascend in
// document order.
func (r *Record) Validate() error {
	ids := make(map[string]bool, len(r.Sections))
	prev := 0

	for i, s := range r.Sections {
		if s.ID == "" {
			return fmt.Errorf("%w: section %d has no id", ErrInvalidRecord, i+1)
		}
		if ids[s.ID] {
			return fmt.Errorf("%w: duplicate section id %q", ErrInvalidRecord, s.ID)
		}
		ids[s.ID] = true

		if s.Index <= prev {
			return fmt.Errorf("%w: section %q index %d does not follow %d", ErrInvalidRecord, s.ID, s.Index, prev)
		}
		prev = s.Index

		if s.Category != nil && !s.Category.Type.Valid() {
			return fmt.Errorf("%w: section %q has unknown category %q", ErrInvalidRecord, s.ID, s.Category.Type)
		}
		if s.Impact != nil {
			if err := s.Impact.validate(); err != nil {
				return fmt.Errorf("%w: section %q: %w", ErrInvalidRecord, s.ID, err)
			}
		}
	}

	for topic, analysis := range r.ImpactAnalyses {
		if !topic.Valid() {
			return fmt.Errorf("%w: unknown impact topic %q", ErrInvalidRecord, topic)
		}
		if !analysis.Score.Valid() {
			return fmt.Errorf("%w: impact %q has unknown score %q", ErrInvalidRecord, topic, analysis.Score)
		}
		for _, id := range analysis.RelatedProvisions {
			if !ids[id] {
				return fmt.Errorf("%w: impact %q references unknown provision %q", ErrReferentialIntegrity, topic, id)
			}
		}
	}

	concerns := make(map[string]bool, len(r.KeyConcerns))
	for _, c := range r.KeyConcerns {
		if c.ID == "" {
			return fmt.Errorf("%w: key concern %q has no id", ErrInvalidRecord, c.Title)
		}
		if concerns[c.ID] {
			return fmt.Errorf("%w: duplicate key concern id %q", ErrInvalidRecord, c.ID)
		}
		concerns[c.ID] = true

		if !c.Severity.Valid() {
			return fmt.Errorf("%w: key concern %q has unknown severity %q", ErrInvalidRecord, c.ID, c.Severity)
		}
		for _, id := range c.RelatedProvisions {
			if !ids[id] {
				return fmt.Errorf("%w: key concern %q references unknown provision %q", ErrReferentialIntegrity, c.ID, id)
			}
		}
		for _, topic := range c.RelatedImpacts {
			if _, ok := r.ImpactAnalyses[topic]; !ok {
				return fmt.Errorf("%w: key concern %q references unknown impact %q", ErrReferentialIntegrity, c.ID, topic)
			}
		}
	}

	return nil
}

func (a *ImpactAssessment) validate() error {
	for _, topic := range topics {
		level, ok := a.Levels[topic]
		if !ok {
			return fmt.Errorf("missing impact level for %q", topic)
		}
		if !level.Valid() {
			return fmt.Errorf("unknown impact level %q for %q", level, topic)
		}
	}
	if len(a.Levels) != len(topics) {
		return fmt.Errorf("impact levels name %d topics, want %d", len(a.Levels), len(topics))
	}
	if math.IsNaN(a.Confidence) || a.Confidence < 0 || a.Confidence > 1 {
		return fmt.Errorf("confidence %v outside [0, 1]", a.Confidence)
	}
	return nil
}
