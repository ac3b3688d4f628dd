package stages

import (
	"errors"
	"math"
	"testing"

	"github.com/JaimeStill/docket/internal/layout"
)

func TestPageTexts(t *testing.T) {
	page := visionPage{Blocks: []visionBlock{
		{Label: layout.LabelSectionHeader, Text: "Interpretation", BBox: normBox{L: 0.1, T: 0.1, R: 0.5, B: 0.15}},
		{Label: layout.LabelText, Text: "", BBox: normBox{L: 0.1, T: 0.2, R: 0.5, B: 0.25}},
		{Label: layout.LabelText, Text: "swapped", BBox: normBox{L: 0.9, T: 1.2, R: 0.2, B: 0.8}},
	}}

	texts, err := pageTexts(page, 3, layout.Size{Width: 600, Height: 800})
	if err != nil {
		t.Fatal(err)
	}
	if len(texts) != 2 {
		t.Fatalf("got %d texts, want 2 (empty dropped)", len(texts))
	}

	near := func(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

	b := texts[0].Prov[0].BBox
	if texts[0].Prov[0].PageNo != 3 || !near(b.L, 60) || !near(b.T, 720) || !near(b.R, 300) || !near(b.B, 680) {
		t.Errorf("header box = %+v", b)
	}

	b = texts[1].Prov[0].BBox
	if !near(b.L, 120) || !near(b.R, 540) || !near(b.T, 160) || !near(b.B, 0) {
		t.Errorf("clamped box = %+v", b)
	}
	if b.T < b.B || b.R < b.L {
		t.Errorf("box should be ordered: %+v", b)
	}
}

func TestPageTextsUnknownLabel(t *testing.T) {
	page := visionPage{Blocks: []visionBlock{{Label: "caption", Text: "Figure 1"}}}
	if _, err := pageTexts(page, 1, layout.Size{Width: 612, Height: 792}); !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("error = %v, want ErrInvalidResponse", err)
	}
}
