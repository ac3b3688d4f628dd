package stages

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/document-context/pkg/config"
	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/encoding"
	"github.com/JaimeStill/document-context/pkg/image"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/sync/errgroup"

	dconfig "github.com/JaimeStill/docket/internal/config"
	"github.com/JaimeStill/docket/internal/layout"
	"github.com/JaimeStill/docket/internal/prompts"
	"github.com/JaimeStill/docket/pkg/formatting"
	"github.com/JaimeStill/docket/workflow"
)

// US Letter in PDF points, used when page sizes cannot be read.
const (
	letterWidth  = 612.0
	letterHeight = 792.0
)

// VisionExtractor renders each page to an image and asks a vision model
// for the page's labelled text blocks. Pages render concurrently; model
// calls are made one page at a time.
type VisionExtractor struct {
	dpi     int
	workers int
	models  Models
	prompts *prompts.Library
	logger  *slog.Logger
}

// NewVisionExtractor creates a VisionExtractor.
func NewVisionExtractor(cfg *dconfig.ExtractConfig, models Models, lib *prompts.Library, logger *slog.Logger) *VisionExtractor {
	return &VisionExtractor{
		dpi:     cfg.DPI,
		workers: cfg.RenderWorkers,
		models:  models,
		prompts: lib,
		logger:  logger.With("extractor", "vision"),
	}
}

type visionPage struct {
	Blocks []visionBlock `json:"blocks"`
}

type visionBlock struct {
	Label string  `json:"label"`
	Text  string  `json:"text"`
	BBox  normBox `json:"bbox"`
}

// normBox is a bounding box in page fractions with a top-left origin.
type normBox struct {
	L float64 `json:"l"`
	T float64 `json:"t"`
	R float64 `json:"r"`
	B float64 `json:"b"`
}

type pageInput struct {
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

// Extract renders and transcribes every page of the PDF at path.
func (e *VisionExtractor) Extract(ctx context.Context, path string) (*layout.Document, error) {
	images, err := e.render(ctx, path)
	if err != nil {
		return nil, err
	}

	m, err := e.models.For(prompts.StageExtract)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelFailed, err)
	}

	sizes := pageSizes(path, len(images))
	doc := &layout.Document{Name: workflow.Stem(path)}

	for i, img := range images {
		page := i + 1

		prompt, err := e.prompts.Compose(prompts.StageExtract, pageInput{Page: page, Pages: len(images)})
		if err != nil {
			return nil, err
		}

		content, err := m.Vision(ctx, prompt, []string{img})
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: vision call: %w", ErrModelFailed, page, err)
		}

		parsed, err := formatting.Parse[visionPage](content)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}

		texts, err := pageTexts(parsed, page, sizes[i])
		if err != nil {
			return nil, err
		}

		doc.SetPage(page, sizes[i].Width, sizes[i].Height)
		doc.Texts = append(doc.Texts, texts...)

		e.logger.DebugContext(ctx, "page transcribed", "page", page, "blocks", len(texts))
	}

	return doc, nil
}

func (e *VisionExtractor) render(ctx context.Context, path string) ([]string, error) {
	pdf, err := document.OpenPDF(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %w", ErrExtractFailed, err)
	}
	defer pdf.Close()

	renderer, err := image.NewImageMagickRenderer(config.ImageConfig{
		Format:  "png",
		DPI:     e.dpi,
		Options: map[string]any{"background": "white"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create renderer: %w", ErrExtractFailed, err)
	}

	pages, err := pdf.ExtractAllPages()
	if err != nil {
		return nil, fmt.Errorf("%w: extract pages: %w", ErrExtractFailed, err)
	}

	uris := make([]string, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(min(e.workers, len(pages)), 1))

	for i, page := range pages {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			data, err := page.ToImage(renderer, nil)
			if err != nil {
				return fmt.Errorf("render page %d: %w", i+1, err)
			}

			uri, err := encoding.EncodeImageDataURI(data, document.PNG)
			if err != nil {
				return fmt.Errorf("encode page %d: %w", i+1, err)
			}

			uris[i] = uri
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractFailed, err)
	}

	return uris, nil
}

// pageSizes reads page dimensions in points, falling back to US Letter.
func pageSizes(path string, n int) []layout.Size {
	sizes := make([]layout.Size, n)
	for i := range sizes {
		sizes[i] = layout.Size{Width: letterWidth, Height: letterHeight}
	}

	f, err := os.Open(path)
	if err != nil {
		return sizes
	}
	defer f.Close()

	dims, err := api.PageDims(f, nil)
	if err != nil {
		return sizes
	}

	for i := 0; i < n && i < len(dims); i++ {
		if dims[i].Width > 0 && dims[i].Height > 0 {
			sizes[i] = layout.Size{Width: dims[i].Width, Height: dims[i].Height}
		}
	}
	return sizes
}

// pageTexts validates a page's blocks and maps their fractional top-left
// boxes onto PDF points with a bottom-left origin.
func pageTexts(p visionPage, page int, size layout.Size) ([]layout.Text, error) {
	texts := make([]layout.Text, 0, len(p.Blocks))

	for i, b := range p.Blocks {
		if !layout.ValidLabel(b.Label) {
			return nil, fmt.Errorf("%w: page %d block %d has unknown label %q", ErrInvalidResponse, page, i+1, b.Label)
		}
		if b.Text == "" {
			continue
		}

		l, r := ordered(clamp(b.BBox.L), clamp(b.BBox.R))
		t, btm := ordered(clamp(b.BBox.T), clamp(b.BBox.B))

		texts = append(texts, layout.Text{
			Label: b.Label,
			Text:  b.Text,
			Prov: []layout.Prov{{
				PageNo: page,
				BBox: layout.BBox{
					L:           l * size.Width,
					T:           (1 - t) * size.Height,
					R:           r * size.Width,
					B:           (1 - btm) * size.Height,
					CoordOrigin: "BOTTOMLEFT",
				},
			}},
		})
	}

	return texts, nil
}

func clamp(v float64) float64 {
	return min(max(v, 0), 1)
}

func ordered(a, b float64) (float64, float64) {
	if a > b {
		return b, a
	}
	return a, b
}
