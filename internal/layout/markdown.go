package layout

import "strings"

// Markdown exports the document for human review: titles and section
// headers become headings, list items become bullets, tables render as
// markdown tables, and page headers and footers are dropped.
func (d *Document) Markdown() string {
	var blocks []string

	for _, it := range d.Items() {
		text := strings.TrimSpace(it.Text)
		if text == "" {
			continue
		}

		switch it.Label {
		case LabelPageHeader, LabelPageFooter:
			continue
		case LabelTitle:
			blocks = append(blocks, "# "+text)
		case LabelSectionHeader:
			blocks = append(blocks, "## "+text)
		case LabelListItem:
			blocks = append(blocks, "- "+text)
		default:
			blocks = append(blocks, text)
		}
	}

	if len(blocks) == 0 {
		return ""
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

// TableMarkdown renders table cells as a markdown table whose first grid
// row is the header. Spanning cells occupy their starting position only.
func TableMarkdown(cells []TableCell) string {
	if len(cells) == 0 {
		return ""
	}

	rows, cols := 0, 0
	for _, c := range cells {
		rows = max(rows, c.EndRow)
		cols = max(cols, c.EndCol)
	}
	if rows == 0 || cols == 0 {
		return ""
	}

	grid := make([][]string, rows)
	for i := range grid {
		grid[i] = make([]string, cols)
	}
	for _, c := range cells {
		if c.StartRow >= 0 && c.StartRow < rows && c.StartCol >= 0 && c.StartCol < cols {
			grid[c.StartRow][c.StartCol] = strings.TrimSpace(c.Text)
		}
	}

	sep := make([]string, cols)
	for i := range sep {
		sep[i] = "---"
	}

	lines := make([]string, 0, rows+1)
	lines = append(lines, row(grid[0]), row(sep))
	for _, r := range grid[1:] {
		lines = append(lines, row(r))
	}
	return strings.Join(lines, "\n")
}

func row(cells []string) string {
	return "| " + strings.Join(cells, " | ") + " |"
}
