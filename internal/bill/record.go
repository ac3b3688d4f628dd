// Package bill defines the Bill Record accumulated by the enrichment stages,
// the published record the website loads, and the invariants both must hold.
package bill

import (
	"encoding/json"
	"fmt"
	"time"
)

// Record is the structured representation of one bill. Segmentation creates
// it; each enrichment stage adds the fields it owns and rewrites the whole
// record.
type Record struct {
	Sections         []Section                `json:"sections"`
	ExecutiveSummary string                   `json:"executiveSummary,omitempty"`
	ImpactAnalyses   map[Topic]ImpactAnalysis `json:"impactAnalyses,omitempty"`
	KeyConcerns      []KeyConcern             `json:"keyConcerns,omitempty"`
	Metadata         *Metadata                `json:"metadata,omitempty"`
}

// Section is one section-level unit of the source text, in document order.
type Section struct {
	ID       string            `json:"id"`
	Index    int               `json:"index"`
	Title    string            `json:"title"`
	RawText  string            `json:"rawText"`
	Category *Categorization   `json:"category,omitempty"`
	Summary  string            `json:"summary,omitempty"`
	Impact   *ImpactAssessment `json:"impact,omitempty"`
}

// IsProvision reports whether the section has been categorized as a provision.
func (s *Section) IsProvision() bool {
	return s.Category != nil && s.Category.Type == Provision
}

// Categorization is the category assigned to a section and why.
type Categorization struct {
	Type      Category `json:"type"`
	Reasoning string   `json:"reasoning"`
}

// ImpactAssessment rates a provision against every topic.
type ImpactAssessment struct {
	Levels     map[Topic]ImpactLevel `json:"levels"`
	Reasoning  string                `json:"reasoning"`
	Confidence float64               `json:"confidence"`
}

// ImpactAnalysis is the narrative for one topic with severe or high provisions.
type ImpactAnalysis struct {
	Score              ImpactLevel `json:"score"`
	Analysis           string      `json:"analysis"`
	AffectedProvisions int         `json:"affectedProvisions"`
	RelatedProvisions  []string    `json:"relatedProvisions"`
}

// KeyConcern is a critical issue raised by a single provision.
type KeyConcern struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Severity          Severity `json:"severity"`
	Description       string   `json:"description"`
	RelatedProvisions []string `json:"relatedProvisions"`
	RelatedImpacts    []Topic  `json:"relatedImpacts"`
}

// Metadata describes the source document and the processed record.
type Metadata struct {
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	PDFPath     *string    `json:"pdfPath"`
	SourceURL   string     `json:"sourceUrl,omitempty"`
	ProcessedAt time.Time  `json:"processedAt"`
	Statistics  Statistics `json:"statistics"`
}

// Statistics counts sections by category and enrichment.
type Statistics struct {
	TotalSections int `json:"totalSections"`
	Provisions    int `json:"provisions"`
	Preambles     int `json:"preambles"`
	Metadata      int `json:"metadata"`
	WithSummaries int `json:"withSummaries"`
	WithImpacts   int `json:"withImpacts"`
}

// Decode parses a record artifact.
func Decode(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return &r, nil
}

// Encode renders r as indented JSON with a trailing newline.
func (r *Record) Encode() ([]byte, error) {
	return encode(r)
}

// Provisions returns pointers to the sections categorized as provisions, in order.
func (r *Record) Provisions() []*Section {
	var out []*Section
	for i := range r.Sections {
		if r.Sections[i].IsProvision() {
			out = append(out, &r.Sections[i])
		}
	}
	return out
}

// Count returns the number of sections in category c.
func (r *Record) Count(c Category) int {
	n := 0
	for _, s := range r.Sections {
		if s.Category != nil && s.Category.Type == c {
			n++
		}
	}
	return n
}

// ComputeStatistics tallies sections by category and enrichment.
func (r *Record) ComputeStatistics() Statistics {
	stats := Statistics{TotalSections: len(r.Sections)}
	for _, s := range r.Sections {
		if s.Category != nil {
			switch s.Category.Type {
			case Provision:
				stats.Provisions++
			case Preamble:
				stats.Preambles++
			case Meta:
				stats.Metadata++
			}
		}
		if s.Summary != "" {
			stats.WithSummaries++
		}
		if s.Impact != nil {
			stats.WithImpacts++
		}
	}
	return stats
}

func encode(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
