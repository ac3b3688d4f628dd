package stages

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/JaimeStill/docket/internal/layout"
	"github.com/JaimeStill/docket/workflow"
)

// DoclingExtractor runs the docling CLI and decodes its JSON export.
type DoclingExtractor struct {
	command []string
	logger  *slog.Logger
}

// NewDoclingExtractor creates a DoclingExtractor. command may carry leading
// arguments, such as "uv run docling".
func NewDoclingExtractor(command string, logger *slog.Logger) *DoclingExtractor {
	return &DoclingExtractor{
		command: strings.Fields(command),
		logger:  logger.With("extractor", "docling"),
	}
}

// Extract converts the PDF at path into a layout document.
func (e *DoclingExtractor) Extract(ctx context.Context, path string) (*layout.Document, error) {
	if len(e.command) == 0 {
		return nil, fmt.Errorf("%w: docling command not configured", ErrExtractFailed)
	}

	tmp, err := os.MkdirTemp("", "docket-docling-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create temp directory: %w", ErrExtractFailed, err)
	}
	defer os.RemoveAll(tmp)

	args := append(e.command[1:len(e.command):len(e.command)], path, "--to", "json", "--output", tmp)
	cmd := exec.CommandContext(ctx, e.command[0], args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.logger.DebugContext(ctx, "running docling", "args", args)

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: docling: %w: %s", ErrExtractFailed, err, tail(stderr.String(), 400))
	}

	out := filepath.Join(tmp, workflow.Stem(path)+".json")
	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("%w: read docling output: %w", ErrExtractFailed, err)
	}

	return layout.Decode(data)
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
