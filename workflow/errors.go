// Package workflow drives source documents through an ordered table of
// stages. Each stage consumes the artifact of the stage before it and
// persists its own; present artifacts are reused unless a run is forced.
package workflow

import (
	"errors"
	"fmt"
)

// Sentinel errors for workflow operations.
var (
	ErrInputNotFound  = errors.New("input not found")
	ErrUnknownStage   = errors.New("unknown stage")
	ErrInvalidStages  = errors.New("invalid stage table")
	ErrDuplicateSlug  = errors.New("duplicate document slug")
	ErrSourceNotFound = fmt.Errorf("%w: source document", ErrInputNotFound)
)

// StageError reports the stage at which a document's run halted.
// Index is the 1-based position of the stage in the table.
type StageError struct {
	Stage string
	Index int
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d (%s): %v", e.Index, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
