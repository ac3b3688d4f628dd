package prompts

import "errors"

// ErrInvalidStage indicates a stage that has no prompt.
var ErrInvalidStage = errors.New("stage has no prompt")
