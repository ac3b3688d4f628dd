package stages

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/JaimeStill/docket/internal/artifacts"
	"github.com/JaimeStill/docket/internal/config"
	"github.com/JaimeStill/docket/internal/layout"
	"github.com/JaimeStill/docket/internal/prompts"
	"github.com/JaimeStill/docket/pkg/formatting"
	"github.com/JaimeStill/docket/workflow"
)

// Extractor turns a source PDF into a layout document.
type Extractor interface {
	Extract(ctx context.Context, path string) (*layout.Document, error)
}

// NewExtractor returns the extractor selected by cfg.Method.
func NewExtractor(cfg *config.ExtractConfig, models Models, lib *prompts.Library, logger *slog.Logger) (Extractor, error) {
	switch cfg.Method {
	case config.ExtractVision:
		return NewVisionExtractor(cfg, models, lib, logger), nil
	case config.ExtractDocling:
		return NewDoclingExtractor(cfg.DoclingCommand, logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown extract method %q", ErrExtractFailed, cfg.Method)
	}
}

// Preflight checks that path is a readable PDF no larger than maxSize bytes
// (0 disables the limit) and returns its page count.
func Preflight(path string, maxSize int64) (int, error) {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return 0, fmt.Errorf("%w: %s is not a pdf", ErrSourceInvalid, filepath.Base(path))
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %w", ErrSourceInvalid, workflow.ErrSourceNotFound)
		}
		return 0, fmt.Errorf("%w: %w", ErrSourceInvalid, err)
	}

	if maxSize > 0 && info.Size() > maxSize {
		return 0, fmt.Errorf(
			"%w: %s exceeds %s",
			ErrSourceInvalid,
			formatting.FormatBytes(info.Size(), 1),
			formatting.FormatBytes(maxSize, 0),
		)
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSourceInvalid, err)
	}
	defer f.Close()

	count, err := api.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: read page count: %w", ErrSourceInvalid, err)
	}
	if count < 1 {
		return 0, fmt.Errorf("%w: no pages", ErrSourceInvalid)
	}

	return count, nil
}

func extractStage(rt *Runtime) workflow.Stage {
	return workflow.Stage{
		Name:        NameExtract,
		Description: "text and structure extraction",
		Artifact:    artifacts.Format{Suffix: ".docling.json"},
		Entry:       true,
		Run: func(ctx context.Context, doc workflow.Document, _ []byte) (artifacts.Artifact, error) {
			pages, err := rt.Preflight(doc.Path)
			if err != nil {
				return artifacts.Artifact{}, err
			}

			rt.Logger.InfoContext(ctx, "extracting", "document", doc.Slug, "pages", pages)

			ld, err := rt.Extractor.Extract(ctx, doc.Path)
			if err != nil {
				return artifacts.Artifact{}, err
			}
			if ld.Name == "" {
				ld.Name = workflow.Stem(doc.Path)
			}

			data, err := ld.Encode()
			if err != nil {
				return artifacts.Artifact{}, fmt.Errorf("%w: encode layout: %w", ErrExtractFailed, err)
			}

			return artifacts.Artifact{
				Data:       data,
				Companions: map[string][]byte{".md": []byte(ld.Markdown())},
			}, nil
		},
		Validate: func(data []byte) error {
			ld, err := layout.Decode(data)
			if err != nil {
				return err
			}
			return ld.Validate()
		},
		Yield: func(data []byte) workflow.Yield {
			ld, err := layout.Decode(data)
			if err != nil {
				return nil
			}
			return workflow.Yield{"pages": ld.PageCount()}
		},
	}
}
