package stages

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"

	"github.com/JaimeStill/docket/internal/artifacts"
	"github.com/JaimeStill/docket/internal/bill"
	"github.com/JaimeStill/docket/internal/layout"
	"github.com/JaimeStill/docket/pkg/formatting"
	"github.com/JaimeStill/docket/workflow"
)

const (
	marginBucket      = 5.0
	marginTolerance   = 5.0
	minLevelMembers   = 5
	headerLevels      = 3
	defaultHeaderY    = 800.0
	defaultCenteredX  = 150.0
	sectionFallbackID = "section"
)

var (
	numberedClause = regexp.MustCompile(`^(\d+[\.\s]|\(\d+\))`)
	letteredItem   = regexp.MustCompile(`^\([a-z]\)`)
)

// Structure is the page geometry inferred from a layout document.
type Structure struct {
	// Levels are the left margins shared by at least five blocks, ascending.
	Levels []float64
	// HeaderY is the top edge above which centered blocks are banners.
	HeaderY float64
	// CenteredX is the left edge beyond which blocks count as centered.
	CenteredX float64
}

// InferStructure derives indentation levels and banner thresholds from the
// text blocks on pages after skip.
func InferStructure(doc *layout.Document, skip int) Structure {
	buckets := make(map[float64]int)
	var ys []float64

	for _, t := range doc.Texts {
		if len(t.Prov) == 0 {
			continue
		}
		p := t.Prov[0]
		if p.PageNo <= skip || t.Label == layout.LabelPageHeader || t.Label == layout.LabelPageFooter {
			continue
		}
		if p.BBox.L > 0 {
			buckets[math.Round(p.BBox.L/marginBucket)*marginBucket]++
		}
		if p.BBox.T > 0 {
			ys = append(ys, p.BBox.T)
		}
	}

	s := Structure{HeaderY: defaultHeaderY, CenteredX: defaultCenteredX}

	for m, n := range buckets {
		if n >= minLevelMembers {
			s.Levels = append(s.Levels, m)
		}
	}
	slices.Sort(s.Levels)

	if len(s.Levels) > 0 {
		s.CenteredX = (s.Levels[0] + s.Levels[len(s.Levels)-1]) / 2
	}

	slices.SortFunc(ys, func(a, b float64) int { return cmp.Compare(b, a) })
	if top := ys[:len(ys)/10]; len(top) > 0 {
		s.HeaderY = slices.Min(top)
	}

	return s
}

// leftAligned reports whether a block starting at left sits on one of the
// first three indentation levels. With no levels every block qualifies.
func (s Structure) leftAligned(left float64) bool {
	if len(s.Levels) == 0 {
		return true
	}
	for _, m := range s.Levels[:min(headerLevels, len(s.Levels))] {
		if math.Abs(left-m) < marginTolerance {
			return true
		}
	}
	return false
}

// indent returns the indentation level of a list item starting at left.
func (s Structure) indent(left float64) int {
	for i, m := range s.Levels {
		if math.Abs(left-m) < marginTolerance {
			return i
		}
	}
	return 0
}

// Segment splits a layout document into sections. Left-aligned section
// headers that are not numbered clauses, quotations or lettered items
// start a section; every other block on pages after skip becomes markdown
// content of the current section.
func Segment(doc *layout.Document, skip int) []bill.Section {
	st := InferStructure(doc, skip)

	type draft struct {
		title   string
		content []string
	}

	var drafts []draft
	var current *draft

	for _, it := range doc.Items() {
		text := strings.TrimSpace(it.Text)
		if it.Page <= skip || it.Label == layout.LabelPageHeader || it.Label == layout.LabelPageFooter || text == "" {
			continue
		}

		if it.BBox.L > st.CenteredX && it.BBox.T > st.HeaderY {
			continue
		}

		if it.Label == layout.LabelSectionHeader && st.leftAligned(it.BBox.L) && boundary(text) {
			drafts = append(drafts, draft{title: text})
			current = &drafts[len(drafts)-1]
			continue
		}

		if current != nil {
			current.content = append(current.content, st.format(it.Label, text, it.BBox.L))
		}
	}

	slugs := formatting.NewSlugger()
	sections := make([]bill.Section, len(drafts))
	for i, d := range drafts {
		sections[i] = bill.Section{
			ID:      slugs.Next(d.title, fmt.Sprintf("%s-%d", sectionFallbackID, i+1)),
			Index:   i + 1,
			Title:   d.title,
			RawText: strings.TrimSpace(strings.Join(d.content, "\n\n")),
		}
	}

	return sections
}

func boundary(text string) bool {
	if numberedClause.MatchString(text) || letteredItem.MatchString(text) {
		return false
	}
	return !strings.HasPrefix(text, "'") && !strings.HasPrefix(text, `"`)
}

func (s Structure) format(label, text string, left float64) string {
	switch label {
	case layout.LabelSectionHeader:
		return "## " + text
	case layout.LabelListItem:
		return strings.Repeat("  ", s.indent(left)) + "- " + text
	default:
		return text
	}
}

func segmentStage(rt *Runtime) workflow.Stage {
	return workflow.Stage{
		Name:        NameSegment,
		Description: "section segmentation",
		Artifact:    artifacts.Format{Suffix: ".json"},
		Run: func(ctx context.Context, doc workflow.Document, input []byte) (artifacts.Artifact, error) {
			ld, err := layout.Decode(input)
			if err != nil {
				return artifacts.Artifact{}, err
			}

			sections := Segment(ld, rt.Extract.SkipPageCount())
			if len(sections) == 0 {
				return artifacts.Artifact{}, fmt.Errorf("%w: %s", ErrNoSections, doc.Name)
			}

			rec := &bill.Record{Sections: sections}
			data, err := rec.Encode()
			if err != nil {
				return artifacts.Artifact{}, fmt.Errorf("encode record: %w", err)
			}
			return artifacts.Artifact{Data: data}, nil
		},
		Validate: validateRecord,
		Yield: func(data []byte) workflow.Yield {
			rec, err := bill.Decode(data)
			if err != nil {
				return nil
			}
			return workflow.Yield{"sections": len(rec.Sections)}
		},
	}
}
