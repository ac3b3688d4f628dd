// Package layout defines the structured-text artifact produced by text
// extraction. The JSON shape is a subset of the Docling document format so
// either extractor's output feeds segmentation unchanged.
package layout

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
)

// Labels assigned to text blocks.
const (
	LabelTitle         = "title"
	LabelSectionHeader = "section_header"
	LabelText          = "text"
	LabelListItem      = "list_item"
	LabelPageHeader    = "page_header"
	LabelPageFooter    = "page_footer"
	LabelTable         = "table"
)

var extractLabels = []string{
	LabelTitle, LabelSectionHeader, LabelText, LabelListItem, LabelPageHeader, LabelPageFooter,
}

// ValidLabel reports whether label is one an extractor may assign to a text block.
func ValidLabel(label string) bool {
	return slices.Contains(extractLabels, label)
}

// ErrInvalidDocument indicates a layout artifact that cannot be used.
var ErrInvalidDocument = errors.New("invalid layout document")

// Document is the extracted layout of one PDF.
type Document struct {
	Name   string          `json:"name,omitempty"`
	Pages  map[string]Page `json:"pages,omitempty"`
	Texts  []Text          `json:"texts"`
	Tables []Table         `json:"tables"`
}

// Page records the size of one page in PDF points.
type Page struct {
	PageNo int  `json:"page_no"`
	Size   Size `json:"size"`
}

// Size is a width and height in PDF points.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Text is a labelled block of text with its provenance.
type Text struct {
	Label string `json:"label"`
	Text  string `json:"text"`
	Prov  []Prov `json:"prov"`
}

// Table is a detected table with its cells.
type Table struct {
	Prov []Prov    `json:"prov"`
	Data TableData `json:"data"`
}

// TableData holds the cells of a table.
type TableData struct {
	NumRows    int         `json:"num_rows,omitempty"`
	NumCols    int         `json:"num_cols,omitempty"`
	TableCells []TableCell `json:"table_cells"`
}

// TableCell spans rows [StartRow, EndRow) and columns [StartCol, EndCol).
type TableCell struct {
	Text     string `json:"text"`
	StartRow int    `json:"start_row_offset_idx"`
	EndRow   int    `json:"end_row_offset_idx"`
	StartCol int    `json:"start_col_offset_idx"`
	EndCol   int    `json:"end_col_offset_idx"`
}

// Prov locates a block on a page.
type Prov struct {
	PageNo int  `json:"page_no"`
	BBox   BBox `json:"bbox"`
}

// BBox is a bounding box in PDF points with a bottom-left origin, so T > B.
type BBox struct {
	L           float64 `json:"l"`
	T           float64 `json:"t"`
	R           float64 `json:"r"`
	B           float64 `json:"b"`
	CoordOrigin string  `json:"coord_origin,omitempty"`
}

// Item is a text block or rendered table positioned in reading order.
type Item struct {
	Label string
	Text  string
	Page  int
	BBox  BBox
}

// Decode parses a layout artifact.
func Decode(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return &d, nil
}

// Encode renders d as indented JSON with a trailing newline.
func (d *Document) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// SetPage records the size of page n.
func (d *Document) SetPage(n int, width, height float64) {
	if d.Pages == nil {
		d.Pages = make(map[string]Page)
	}
	d.Pages[strconv.Itoa(n)] = Page{PageNo: n, Size: Size{Width: width, Height: height}}
}

// PageCount returns the number of pages recorded, falling back to the
// highest page referenced by any block.
func (d *Document) PageCount() int {
	if len(d.Pages) > 0 {
		return len(d.Pages)
	}
	n := 0
	for _, it := range d.Items() {
		n = max(n, it.Page)
	}
	return n
}

// Validate checks that the document has content and every block has a
// known page and a well-formed bounding box.
func (d *Document) Validate() error {
	if len(d.Texts) == 0 && len(d.Tables) == 0 {
		return fmt.Errorf("%w: no text blocks", ErrInvalidDocument)
	}
	for i, t := range d.Texts {
		for _, p := range t.Prov {
			if p.PageNo < 1 {
				return fmt.Errorf("%w: text %d has page %d", ErrInvalidDocument, i, p.PageNo)
			}
			if p.BBox.R < p.BBox.L || p.BBox.T < p.BBox.B {
				return fmt.Errorf("%w: text %d has an inverted bounding box", ErrInvalidDocument, i)
			}
		}
	}
	return nil
}

// Items returns text blocks and rendered tables sorted by page, then top to
// bottom, then left to right. Ties keep their source order, texts first.
func (d *Document) Items() []Item {
	items := make([]Item, 0, len(d.Texts)+len(d.Tables))

	for _, t := range d.Texts {
		it := Item{Label: t.Label, Text: t.Text}
		if len(t.Prov) > 0 {
			it.Page = t.Prov[0].PageNo
			it.BBox = t.Prov[0].BBox
		}
		items = append(items, it)
	}

	for _, t := range d.Tables {
		md := TableMarkdown(t.Data.TableCells)
		if md == "" {
			continue
		}
		it := Item{Label: LabelTable, Text: md}
		if len(t.Prov) > 0 {
			it.Page = t.Prov[0].PageNo
			it.BBox = t.Prov[0].BBox
		}
		items = append(items, it)
	}

	slices.SortStableFunc(items, func(a, b Item) int {
		return cmp.Or(
			cmp.Compare(a.Page, b.Page),
			cmp.Compare(b.BBox.T, a.BBox.T),
			cmp.Compare(a.BBox.L, b.BBox.L),
		)
	})

	return items
}
