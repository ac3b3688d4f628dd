// Package prompts holds the instructions and response specifications sent to
// the language model by each model-backed stage. Instructions are tunable
// through override files; specifications are fixed because stage parsers
// depend on them.
package prompts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Library resolves prompts for stages, preferring an override file
// "<dir>/<stage>.md" over the built-in instructions.
type Library struct {
	dir    string
	logger *slog.Logger
}

// New creates a Library. An empty dir disables overrides.
func New(dir string, logger *slog.Logger) *Library {
	return &Library{
		dir:    dir,
		logger: logger.With("system", "prompts"),
	}
}

// Instructions returns the effective instructions for stage.
func (l *Library) Instructions(stage Stage) (string, error) {
	def, err := Instructions(stage)
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, stage)
	}

	if l.dir == "" {
		return def, nil
	}

	path := filepath.Join(l.dir, string(stage)+".md")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return def, nil
		}
		return "", fmt.Errorf("read instructions override %s: %w", path, err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return def, nil
	}

	l.logger.Debug("instructions override loaded", "stage", stage, "path", path)
	return text, nil
}

// Compose builds a prompt by combining the effective instructions, the
// immutable spec, and the JSON-encoded input for a stage.
func (l *Library) Compose(stage Stage, input any) (string, error) {
	instructions, err := l.Instructions(stage)
	if err != nil {
		return "", fmt.Errorf("load instructions for %s: %w", stage, err)
	}

	spec, err := Spec(stage)
	if err != nil {
		return "", fmt.Errorf("load spec for %s: %w", stage, err)
	}

	var sb strings.Builder
	sb.WriteString(instructions)
	sb.WriteString("\n\n")
	sb.WriteString(spec)

	if input != nil {
		data, err := json.MarshalIndent(input, "", "  ")
		if err != nil {
			return "", fmt.Errorf("serialize %s input: %w", stage, err)
		}

		sb.WriteString("\n\nInput:\n\n")
		sb.Write(data)
	}

	return sb.String(), nil
}
