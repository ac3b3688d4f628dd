package prompts

import "slices"

// Stage identifies a model-backed pipeline stage. Values match the
// pipeline stage names.
type Stage string

// Model-backed stages.
const (
	StageExtract    Stage = "extract"
	StageCategorize Stage = "categorize"
	StageSummarize  Stage = "summarize"
	StageExecutive  Stage = "executive-summary"
	StageAssess     Stage = "assess-impact"
	StageAnalyze    Stage = "impact-analysis"
	StageConcerns   Stage = "key-concerns"
)

var stages = []Stage{
	StageExtract,
	StageCategorize,
	StageSummarize,
	StageExecutive,
	StageAssess,
	StageAnalyze,
	StageConcerns,
}

// Stages returns the model-backed stages in pipeline order.
func Stages() []Stage {
	return slices.Clone(stages)
}

// ParseStage validates s as a model-backed stage.
func ParseStage(s string) (Stage, error) {
	v := Stage(s)
	if !slices.Contains(stages, v) {
		return "", ErrInvalidStage
	}
	return v, nil
}
