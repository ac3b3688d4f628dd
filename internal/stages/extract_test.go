package stages_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/JaimeStill/docket/internal/layout"
	"github.com/JaimeStill/docket/internal/stages"
	"github.com/JaimeStill/docket/workflow"
)

// minimalPDF builds a single-page PDF with a valid cross-reference table.
func minimalPDF() []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>",
	}

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return b.Bytes()
}

func TestPreflight(t *testing.T) {
	dir := t.TempDir()

	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	valid := write("valid.pdf", minimalPDF())
	upper := write("UPPER.PDF", minimalPDF())
	text := write("notes.txt", []byte("not a pdf"))
	garbage := write("garbage.pdf", []byte("definitely not a pdf"))

	tests := []struct {
		name    string
		path    string
		maxSize int64
		want    int
		wantErr error
	}{
		{"valid", valid, 0, 1, nil},
		{"uppercase extension", upper, 1 << 20, 1, nil},
		{"wrong extension", text, 0, 0, stages.ErrSourceInvalid},
		{"missing", filepath.Join(dir, "missing.pdf"), 0, 0, workflow.ErrSourceNotFound},
		{"missing is a missing input", filepath.Join(dir, "missing.pdf"), 0, 0, workflow.ErrInputNotFound},
		{"too large", valid, 10, 0, stages.ErrSourceInvalid},
		{"unreadable content", garbage, 0, 0, stages.ErrSourceInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := stages.Preflight(tt.path, tt.maxSize)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Preflight: %v", err)
			}
			if got != tt.want {
				t.Errorf("pages = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExtractStageRejectsInvalidSource(t *testing.T) {
	rt := newRuntime(newFakeModels(), nil)
	rt.Preflight = func(path string) (int, error) { return stages.Preflight(path, 0) }
	extractor := &fakeExtractor{doc: billLayout()}
	rt.Extractor = extractor

	doc := workflow.NewDocument(filepath.Join(t.TempDir(), "missing.pdf"))
	_, err := stageNamed(t, rt, stages.NameExtract).Run(context.Background(), doc, nil)

	if !errors.Is(err, stages.ErrSourceInvalid) {
		t.Errorf("error = %v, want ErrSourceInvalid", err)
	}
	if extractor.calls != 0 {
		t.Error("extractor should not run for an invalid source")
	}
}

func TestExtractStageArtifact(t *testing.T) {
	rt := newRuntime(newFakeModels(), nil)
	s := stageNamed(t, rt, stages.NameExtract)

	doc := workflow.NewDocument(filepath.Join(t.TempDir(), "Cyber Bill.pdf"))
	out, err := s.Run(context.Background(), doc, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Validate(out.Data); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	ld, err := layout.Decode(out.Data)
	if err != nil {
		t.Fatal(err)
	}
	if ld.Name != "Cyber Bill" {
		t.Errorf("name = %q", ld.Name)
	}
	if md := string(out.Companions[".md"]); !strings.Contains(md, "| Offence | Penalty |") {
		t.Errorf("markdown companion = %q", md)
	}
	if y := s.Yield(out.Data); y["pages"] != 5 {
		t.Errorf("yield = %v", y)
	}

	if err := s.Validate([]byte(`{"texts": [], "tables": []}`)); !errors.Is(err, layout.ErrInvalidDocument) {
		t.Errorf("empty layout error = %v, want ErrInvalidDocument", err)
	}
}

func TestSegmentStageWithoutSections(t *testing.T) {
	rt := newRuntime(newFakeModels(), nil)

	ld := &layout.Document{Texts: []layout.Text{block(layout.LabelText, "Only prose.", 3, 72, 700)}}
	data, err := ld.Encode()
	if err != nil {
		t.Fatal(err)
	}

	_, err = stageNamed(t, rt, stages.NameSegment).Run(context.Background(), testDoc(t), data)
	if !errors.Is(err, stages.ErrNoSections) {
		t.Errorf("error = %v, want ErrNoSections", err)
	}
}

// fakeDocling writes a script that mimics "docling <pdf> --to json --output <dir>".
func fakeDocling(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script extractor")
	}

	script := filepath.Join(t.TempDir(), "docling")
	content := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(script, []byte(content), 0o755); err != nil {
		t.Fatal(err)
	}
	return script
}

func TestDoclingExtractor(t *testing.T) {
	script := fakeDocling(t, `stem=$(basename "$1" .pdf)
cat > "$5/$stem.json" <<'JSON'
{"name": "bill", "texts": [{"label": "section_header", "text": "Interpretation", "prov": [{"page_no": 3, "bbox": {"l": 72, "t": 700, "r": 300, "b": 688}}]}], "tables": []}
JSON`)

	e := stages.NewDoclingExtractor(script, discard())
	doc, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "Cyber Bill.pdf"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(doc.Texts) != 1 || doc.Texts[0].Text != "Interpretation" {
		t.Errorf("texts = %+v", doc.Texts)
	}
}

func TestDoclingExtractorFailure(t *testing.T) {
	script := fakeDocling(t, `echo "model download failed" >&2
exit 3`)

	e := stages.NewDoclingExtractor(script, discard())
	_, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "Cyber Bill.pdf"))
	if !errors.Is(err, stages.ErrExtractFailed) {
		t.Fatalf("error = %v, want ErrExtractFailed", err)
	}
	if !strings.Contains(err.Error(), "model download failed") {
		t.Errorf("error should carry stderr: %v", err)
	}
}

func TestDoclingExtractorUnconfigured(t *testing.T) {
	e := stages.NewDoclingExtractor("  ", discard())
	if _, err := e.Extract(context.Background(), "bill.pdf"); !errors.Is(err, stages.ErrExtractFailed) {
		t.Errorf("error = %v, want ErrExtractFailed", err)
	}
}
