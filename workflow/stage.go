package workflow

import (
	"context"
	"fmt"
	"maps"

	"github.com/JaimeStill/docket/internal/artifacts"
)

// Stage is one step of the pipeline. Stages run strictly in table order.
type Stage struct {
	// Name identifies the stage in logs, artifacts and the CLI.
	Name string
	// Description is a short human-readable label.
	Description string
	// Artifact locates the stage's output in the artifact store.
	Artifact artifacts.Format
	// Entry marks the first stage, which reads the source document
	// instead of a predecessor artifact.
	Entry bool
	// Run produces the stage's artifact. input is nil for the entry stage.
	Run func(ctx context.Context, doc Document, input []byte) (artifacts.Artifact, error)
	// Validate checks an artifact before it is written. Optional.
	Validate func(data []byte) error
	// Yield reports quantities extracted by the stage. Optional.
	Yield func(data []byte) Yield
}

// Yield holds named quantities a stage reports, such as provisions found.
type Yield map[string]int

// Add accumulates other into y.
func (y Yield) Add(other Yield) {
	for k, v := range other {
		y[k] += v
	}
}

// Clone returns a copy of y.
func (y Yield) Clone() Yield {
	out := maps.Clone(y)
	if out == nil {
		out = Yield{}
	}
	return out
}

// Formats maps each stage name to its artifact format.
func Formats(stages []Stage) map[string]artifacts.Format {
	out := make(map[string]artifacts.Format, len(stages))
	for _, s := range stages {
		out[s.Name] = s.Artifact
	}
	return out
}

func validateStages(stages []Stage) error {
	if len(stages) == 0 {
		return fmt.Errorf("%w: no stages", ErrInvalidStages)
	}

	seen := make(map[string]bool, len(stages))
	for i, s := range stages {
		if s.Name == "" {
			return fmt.Errorf("%w: stage %d has no name", ErrInvalidStages, i+1)
		}
		if seen[s.Name] {
			return fmt.Errorf("%w: duplicate stage %s", ErrInvalidStages, s.Name)
		}
		seen[s.Name] = true

		if s.Run == nil {
			return fmt.Errorf("%w: stage %s has no run function", ErrInvalidStages, s.Name)
		}
		if s.Entry != (i == 0) {
			return fmt.Errorf("%w: only the first stage may be the entry stage", ErrInvalidStages)
		}
	}

	return nil
}
