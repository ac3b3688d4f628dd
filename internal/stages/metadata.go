package stages

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/JaimeStill/docket/internal/bill"
	"github.com/JaimeStill/docket/pkg/formatting"
	"github.com/JaimeStill/docket/workflow"
)

const pdfPrefix = "pdfs/"

// metadata records the bill's title, slug, PDF location, processing time
// and section statistics.
func (rt *Runtime) metadata(ctx context.Context, doc workflow.Document, rec *bill.Record) error {
	stem := workflow.Stem(doc.Path)

	meta := &bill.Metadata{
		Title:       formatting.TrimNumberPrefix(stem),
		Slug:        formatting.Slugify(stem),
		ProcessedAt: rt.now().UTC(),
		Statistics:  rec.ComputeStatistics(),
	}

	if _, err := os.Stat(doc.Path); err == nil {
		p := pdfPrefix + doc.Name
		meta.PDFPath = &p
		if rt.Publish.BaseURL != "" {
			meta.SourceURL = rt.Publish.BaseURL + "/" + p
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat source: %w", err)
	}

	rec.Metadata = meta
	rt.Logger.InfoContext(ctx, "metadata enriched", "document", doc.Slug, "title", meta.Title)
	return nil
}

func (rt *Runtime) now() time.Time {
	if rt.Now == nil {
		return time.Now()
	}
	return rt.Now()
}
