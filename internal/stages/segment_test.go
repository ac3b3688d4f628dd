package stages_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/JaimeStill/docket/internal/layout"
	"github.com/JaimeStill/docket/internal/stages"
)

func block(label, text string, page int, l, t float64) layout.Text {
	return layout.Text{
		Label: label,
		Text:  text,
		Prov:  []layout.Prov{{PageNo: page, BBox: layout.BBox{L: l, T: t, R: l + 300, B: t - 12}}},
	}
}

// billLayout builds a five-page bill: two contents pages, then pages with
// centered banners, left-aligned section headers and indented list items.
func billLayout() *layout.Document {
	const (
		header = layout.LabelSectionHeader
		text   = layout.LabelText
		item   = layout.LabelListItem
	)

	texts := []layout.Text{
		block(header, "ARRANGEMENT OF SECTIONS", 1, 72, 700),
		block(text, "1. Interpretation", 1, 72, 680),

		block(layout.LabelPageHeader, "Cybersecurity (Amendment) Bill", 3, 72, 785),
		block(header, "CYBERSECURITY (AMENDMENT) BILL, 2025", 3, 200, 775),
		block(header, "Interpretation", 3, 72, 700),
		block(text, "In this Act, unless the context otherwise requires,", 3, 72, 680),
		block(item, `"Authority" means the Cyber Security Authority;`, 3, 108, 660),
		block(item, `"Minister" means the Minister responsible for Communications;`, 3, 108, 640),
		block(header, "1. Amendment of section 2", 3, 72, 600),
		block(text, "Section 2 of the principal Act is amended.", 3, 72, 580),
		block(layout.LabelPageFooter, "3", 3, 300, 20),

		block(header, "CYBERSECURITY (AMENDMENT) BILL, 2025", 4, 200, 775),
		block(header, "Interpretation", 4, 72, 740),
		block(item, "first", 4, 108, 720),
		block(item, "second", 4, 108, 700),
		block(item, "third", 4, 108, 680),
		block(header, "'Licensing of providers'", 4, 72, 660),
		block(header, "(a) lettered heading", 4, 72, 640),
		block(header, "Penalties", 4, 72, 620),
		block(text, "A person who contravenes this Act commits an offence.", 4, 72, 600),
		block(header, "Schedule heading", 4, 250, 580),
		block(text, "   ", 4, 72, 570),

		block(header, "Commencement", 5, 72, 760),
	}
	for i := range 13 {
		texts = append(texts, block(text, fmt.Sprintf("Commencement line %d.", i+1), 5, 72, 740-float64(i)*20))
	}

	return &layout.Document{
		Texts: texts,
		Tables: []layout.Table{{
			Prov: []layout.Prov{{PageNo: 4, BBox: layout.BBox{L: 72, T: 560, R: 500, B: 500}}},
			Data: layout.TableData{TableCells: []layout.TableCell{
				{Text: "Offence", StartRow: 0, EndRow: 1, StartCol: 0, EndCol: 1},
				{Text: "Penalty", StartRow: 0, EndRow: 1, StartCol: 1, EndCol: 2},
				{Text: "Unlicensed operation", StartRow: 1, EndRow: 2, StartCol: 0, EndCol: 1},
				{Text: "500 penalty units", StartRow: 1, EndRow: 2, StartCol: 1, EndCol: 2},
			}},
		}},
	}
}

func TestInferStructure(t *testing.T) {
	st := stages.InferStructure(billLayout(), 2)

	if fmt.Sprint(st.Levels) != "[72 108]" {
		t.Errorf("levels = %v, want [72 108]", st.Levels)
	}
	if st.CenteredX != 90 {
		t.Errorf("centered threshold = %v, want 90", st.CenteredX)
	}
	if st.HeaderY != 760 {
		t.Errorf("header threshold = %v, want 760", st.HeaderY)
	}
}

func TestInferStructureDefaults(t *testing.T) {
	st := stages.InferStructure(&layout.Document{}, 2)

	if len(st.Levels) != 0 || st.HeaderY != 800 || st.CenteredX != 150 {
		t.Errorf("structure = %+v, want defaults", st)
	}
}

func TestSegment(t *testing.T) {
	sections := stages.Segment(billLayout(), 2)

	if len(sections) != 4 {
		for _, s := range sections {
			t.Logf("%d %s", s.Index, s.Title)
		}
		t.Fatalf("got %d sections, want 4", len(sections))
	}

	tests := []struct {
		id      string
		title   string
		rawText string
	}{
		{
			id:    "interpretation",
			title: "Interpretation",
			rawText: strings.Join([]string{
				"In this Act, unless the context otherwise requires,",
				`  - "Authority" means the Cyber Security Authority;`,
				`  - "Minister" means the Minister responsible for Communications;`,
				"## 1. Amendment of section 2",
				"Section 2 of the principal Act is amended.",
			}, "\n\n"),
		},
		{
			id:    "interpretation-2",
			title: "Interpretation",
			rawText: strings.Join([]string{
				"  - first",
				"  - second",
				"  - third",
				"## 'Licensing of providers'",
				"## (a) lettered heading",
			}, "\n\n"),
		},
		{
			id:    "penalties",
			title: "Penalties",
			rawText: strings.Join([]string{
				"A person who contravenes this Act commits an offence.",
				"## Schedule heading",
				"| Offence | Penalty |\n| --- | --- |\n| Unlicensed operation | 500 penalty units |",
			}, "\n\n"),
		},
	}

	for i, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			s := sections[i]
			if s.ID != tt.id || s.Title != tt.title || s.Index != i+1 {
				t.Errorf("section = %q %q %d", s.ID, s.Title, s.Index)
			}
			if s.RawText != tt.rawText {
				t.Errorf("rawText =\n%s\nwant\n%s", s.RawText, tt.rawText)
			}
		})
	}

	last := sections[3]
	if last.ID != "commencement" || !strings.HasPrefix(last.RawText, "Commencement line 1.") || !strings.HasSuffix(last.RawText, "Commencement line 13.") {
		t.Errorf("commencement section = %+v", last)
	}
}

func TestSegmentNoLevelsTreatsHeadersAsBoundaries(t *testing.T) {
	doc := &layout.Document{Texts: []layout.Text{
		block(layout.LabelSectionHeader, "Short title", 3, 72, 700),
		block(layout.LabelText, "This Act may be cited as the Data Act.", 3, 72, 680),
		block(layout.LabelSectionHeader, "Repeal", 3, 90, 660),
		block(layout.LabelListItem, "the Old Act is repealed", 3, 110, 640),
	}}

	sections := stages.Segment(doc, 2)
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(sections))
	}
	if sections[1].RawText != "- the Old Act is repealed" {
		t.Errorf("list item without levels = %q", sections[1].RawText)
	}
}

func TestSegmentSkipPages(t *testing.T) {
	doc := &layout.Document{Texts: []layout.Text{
		block(layout.LabelSectionHeader, "Memorandum", 1, 72, 700),
		block(layout.LabelText, "The object of this Bill is to amend the Act.", 1, 72, 680),
	}}

	if got := stages.Segment(doc, 2); len(got) != 0 {
		t.Errorf("skip 2: got %d sections, want 0", len(got))
	}
	if got := stages.Segment(doc, 0); len(got) != 1 || got[0].ID != "memorandum" {
		t.Errorf("skip 0: got %+v", got)
	}
}
