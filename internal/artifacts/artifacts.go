// Package artifacts persists stage outputs keyed by document slug and stage
// name. Stage artifacts live in the output storage system; the published
// record lives in the content storage system the website reads.
package artifacts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"path"
	"slices"

	"github.com/JaimeStill/docket/pkg/storage"
)

var (
	// ErrNotFound indicates no artifact exists for the document and stage.
	ErrNotFound = errors.New("artifact not found")
	// ErrUnknownStage indicates a stage with no registered format.
	ErrUnknownStage = errors.New("no artifact format for stage")
)

// Format describes where a stage's artifact is stored.
type Format struct {
	// Suffix is appended to the document slug, e.g. ".docling.json".
	Suffix string
	// Published routes the artifact to the content system.
	Published bool
}

// Artifact is the output of one stage for one document. Companions are
// extra files keyed by suffix, such as a markdown export.
type Artifact struct {
	Data       []byte
	Companions map[string][]byte
}

// Store reads and writes artifacts by (slug, stage).
type Store struct {
	output  storage.System
	content storage.System
	formats map[string]Format
	logger  *slog.Logger
}

// New creates a Store over the output and content systems using formats to
// map stage names to storage keys.
func New(output, content storage.System, formats map[string]Format, logger *slog.Logger) *Store {
	return &Store{
		output:  output,
		content: content,
		formats: maps.Clone(formats),
		logger:  logger.With("system", "artifacts"),
	}
}

// Key returns the storage key of the artifact for slug at stage.
func (s *Store) Key(slug, stage string) (string, error) {
	f, ok := s.formats[stage]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownStage, stage)
	}
	return slug + f.Suffix, nil
}

// Exists reports whether the artifact for slug at stage is present.
func (s *Store) Exists(ctx context.Context, slug, stage string) (bool, error) {
	sys, key, err := s.locate(slug, stage)
	if err != nil {
		return false, err
	}
	return sys.Exists(ctx, key)
}

// Read returns the artifact data for slug at stage, or ErrNotFound.
func (s *Store) Read(ctx context.Context, slug, stage string) ([]byte, error) {
	sys, key, err := s.locate(slug, stage)
	if err != nil {
		return nil, err
	}

	data, err := storage.ReadAll(ctx, sys, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, err
	}
	return data, nil
}

// Write replaces the artifact for slug at stage. Companions are written
// first so a present primary artifact implies its companions exist.
func (s *Store) Write(ctx context.Context, slug, stage string, a Artifact) error {
	sys, key, err := s.locate(slug, stage)
	if err != nil {
		return err
	}

	for _, suffix := range slices.Sorted(maps.Keys(a.Companions)) {
		ckey := slug + suffix
		if err := sys.Upload(ctx, ckey, bytes.NewReader(a.Companions[suffix]), contentType(ckey)); err != nil {
			return fmt.Errorf("write companion %s: %w", ckey, err)
		}
	}

	if err := sys.Upload(ctx, key, bytes.NewReader(a.Data), contentType(key)); err != nil {
		return fmt.Errorf("write artifact %s: %w", key, err)
	}

	s.logger.DebugContext(ctx, "artifact written", "stage", stage, "key", key, "bytes", len(a.Data))
	return nil
}

func (s *Store) locate(slug, stage string) (storage.System, string, error) {
	f, ok := s.formats[stage]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrUnknownStage, stage)
	}
	if f.Published {
		return s.content, slug + f.Suffix, nil
	}
	return s.output, slug + f.Suffix, nil
}

func contentType(key string) string {
	switch path.Ext(key) {
	case ".json":
		return "application/json"
	case ".md":
		return "text/markdown; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
