// Package infrastructure assembles the core dependencies pipeline commands
// require: logging, lifecycle coordination, and the storage systems that
// back the artifact store and published content.
package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/JaimeStill/docket/internal/config"
	"github.com/JaimeStill/docket/pkg/lifecycle"
	"github.com/JaimeStill/docket/pkg/storage"
)

// Infrastructure holds the core systems shared by every command.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	// Output holds stage artifacts for stages one through nine.
	Output storage.System
	// Content receives published records read by the website.
	Content storage.System
	// Public receives copies of source PDFs. Nil when the copy is disabled.
	Public storage.System
}

// New creates an Infrastructure from the application configuration, logging
// to stderr. It initializes all systems but does not start them; call Start separately.
func New(ctx context.Context, cfg *config.Config) (*Infrastructure, error) {
	return NewWithWriter(ctx, cfg, os.Stderr)
}

// NewWithWriter is New with an explicit log destination.
func NewWithWriter(ctx context.Context, cfg *config.Config, w io.Writer) (*Infrastructure, error) {
	lc := lifecycle.New(ctx)
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.Level()}))

	output, err := storage.New(&cfg.Storage, cfg.Pipeline.OutputDir, logger)
	if err != nil {
		return nil, fmt.Errorf("output storage init failed: %w", err)
	}

	content, err := storage.New(&cfg.Storage, cfg.Publish.ContentDir, logger)
	if err != nil {
		return nil, fmt.Errorf("content storage init failed: %w", err)
	}

	infra := &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Output:    output,
		Content:   content,
	}

	if !cfg.Publish.SkipPDFCopy {
		public, err := storage.New(&cfg.Storage, cfg.Publish.PDFDir, logger)
		if err != nil {
			return nil, fmt.Errorf("public storage init failed: %w", err)
		}
		infra.Public = public
	}

	return infra, nil
}

// Start registers all storage systems with the lifecycle coordinator and
// blocks until their startup hooks complete.
func (i *Infrastructure) Start() error {
	systems := i.systems()
	for name, sys := range systems {
		if err := sys.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("%s storage start failed: %w", name, err)
		}
	}

	i.Lifecycle.OnShutdown(func() {
		<-i.Lifecycle.Context().Done()
		i.Logger.Debug("infrastructure stopped", "storage_systems", len(systems))
	})

	return i.Lifecycle.WaitForStartup()
}

func (i *Infrastructure) systems() map[string]storage.System {
	systems := map[string]storage.System{
		"output":  i.Output,
		"content": i.Content,
	}
	if i.Public != nil {
		systems["public"] = i.Public
	}
	return systems
}
