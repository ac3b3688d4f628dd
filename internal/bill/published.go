package bill

import (
	"fmt"
)

// Published is the record shape the website's content loader reads from
// {content_dir}/{slug}.json.
type Published struct {
	ID               string                     `json:"id"`
	Title            string                     `json:"title"`
	Summary          string                     `json:"summary"`
	PDFPath          *string                    `json:"pdfPath"`
	Impacts          map[string]PublishedImpact `json:"impacts"`
	KeyConcerns      []PublishedConcern         `json:"keyConcerns"`
	Provisions       []PublishedProvision       `json:"provisions"`
	NotebookLMVideo  Video                      `json:"notebookLMVideo"`
	Deadline         string                     `json:"deadline"`
	SubmissionMethod string                     `json:"submissionMethod"`
	RelatedBills     []string                   `json:"relatedBills"`
}

// PublishedImpact is one topic's impact keyed by its published key.
// Description is nil for topics with affected provisions but no analysis.
type PublishedImpact struct {
	Score             ImpactLevel `json:"score"`
	Description       *string     `json:"description"`
	RelatedProvisions []string    `json:"relatedProvisions"`
}

// PublishedConcern is a key concern with impacts named by published key.
type PublishedConcern struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Severity          Severity `json:"severity"`
	Description       string   `json:"description"`
	RelatedProvisions []string `json:"relatedProvisions"`
	RelatedImpacts    []string `json:"relatedImpacts"`
}

// PublishedProvision is a provision section as the website renders it.
type PublishedProvision struct {
	ID             string   `json:"id"`
	Section        int      `json:"section"`
	Title          string   `json:"title"`
	PlainLanguage  string   `json:"plainLanguage"`
	RawText        string   `json:"rawText"`
	RelatedImpacts []string `json:"relatedImpacts"`
}

// Video links the explainer video for a bill.
type Video struct {
	URL      string `json:"url"`
	Duration string `json:"duration"`
}

// Encode renders p as indented JSON with a trailing newline.
func (p *Published) Encode() ([]byte, error) {
	return encode(p)
}

// Validate checks the shape the content loader depends on and that every
// cross-reference resolves to a provision id or impact key in p.
func (p *Published) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: published record has no id", ErrInvalidRecord)
	}
	if p.Title == "" {
		return fmt.Errorf("%w: published record %q has no title", ErrInvalidRecord, p.ID)
	}

	provisions := make(map[string]bool, len(p.Provisions))
	for _, pr := range p.Provisions {
		if pr.ID == "" {
			return fmt.Errorf("%w: provision %d has no id", ErrInvalidRecord, pr.Section)
		}
		if provisions[pr.ID] {
			return fmt.Errorf("%w: duplicate provision id %q", ErrInvalidRecord, pr.ID)
		}
		provisions[pr.ID] = true
	}

	for key, impact := range p.Impacts {
		if !ValidImpactKey(key) {
			return fmt.Errorf("%w: unknown impact key %q", ErrInvalidRecord, key)
		}
		if !impact.Score.Valid() {
			return fmt.Errorf("%w: impact %q has unknown score %q", ErrInvalidRecord, key, impact.Score)
		}
		for _, id := range impact.RelatedProvisions {
			if !provisions[id] {
				return fmt.Errorf("%w: impact %q references unknown provision %q", ErrReferentialIntegrity, key, id)
			}
		}
	}

	for _, pr := range p.Provisions {
		for _, key := range pr.RelatedImpacts {
			if _, ok := p.Impacts[key]; !ok {
				return fmt.Errorf("%w: provision %q references unknown impact %q", ErrReferentialIntegrity, pr.ID, key)
			}
		}
	}

	for _, c := range p.KeyConcerns {
		if !c.Severity.Valid() {
			return fmt.Errorf("%w: key concern %q has unknown severity %q", ErrInvalidRecord, c.ID, c.Severity)
		}
		for _, id := range c.RelatedProvisions {
			if !provisions[id] {
				return fmt.Errorf("%w: key concern %q references unknown provision %q", ErrReferentialIntegrity, c.ID, id)
			}
		}
		for _, key := range c.RelatedImpacts {
			if _, ok := p.Impacts[key]; !ok {
				return fmt.Errorf("%w: key concern %q references unknown impact %q", ErrReferentialIntegrity, c.ID, key)
			}
		}
	}

	return nil
}
