package prompts

const extractSpec = `Respond with a JSON object matching this exact structure:

{
  "blocks": [
    {"label": "<label>", "text": "<text>", "bbox": {"l": 0.0, "t": 0.0, "r": 0.0, "b": 0.0}}
  ]
}

Field constraints:
- label: one of title, section_header, text, list_item, page_header, page_footer
- text: the block's text exactly as printed
- bbox: the block's bounds as fractions of the page (0 to 1) measured from
  the top-left corner; t is the top edge and b the bottom edge, so t < b

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Emit blocks in reading order
- Report only what is visible on this page`

const categorizeSpec = `Respond with a JSON object matching this exact structure:

{
  "category": "<provision|preamble|metadata>",
  "reasoning": "<explanation>"
}

Field constraints:
- category: exactly one of provision, preamble, metadata
- reasoning: one or two sentences explaining the choice

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing`

const summarizeSpec = `Respond with a JSON object matching this exact structure:

{
  "summary": "<plain language summary>"
}

Field constraints:
- summary: non-empty, 3 to 5 sentences

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing`

const executiveSpec = `Respond with a JSON object matching this exact structure:

{
  "executive_summary": "<summary>"
}

Field constraints:
- executive_summary: non-empty, 3 to 4 paragraphs separated by blank lines

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Use only the preambles and provisions provided in the input`

const assessSpec = `Respond with a JSON object matching this exact structure:

{
  "levels": {
    "Digital Innovation": "<level>",
    "Freedom of Speech": "<level>",
    "Privacy & Data Rights": "<level>",
    "Business Environment": "<level>"
  },
  "reasoning": "<explanation>",
  "confidence": 0.0
}

Field constraints:
- levels: all four topics are required; each level is one of
  severe-negative, high-negative, medium-negative, low-negative, neutral,
  low-positive, medium-positive, high-positive, severe-positive
- reasoning: names the specific problems or benefits behind the levels
- confidence: a number between 0 and 1

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing`

const analyzeSpec = `Respond with a JSON object matching this exact structure:

{
  "overall_impact": "<level>",
  "impact_analysis": "<analysis>"
}

Field constraints:
- overall_impact: one of severe-negative, high-negative, medium-negative,
  low-negative, neutral, low-positive, medium-positive, high-positive,
  severe-positive
- impact_analysis: non-empty, 2 to 3 paragraphs

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Consider only the provisions provided for this topic`

const concernsSpec = `Respond with a JSON object matching this exact structure:

{
  "title": "<title>",
  "description": "<description>",
  "severity": "<critical|high|medium|low>"
}

Field constraints:
- title: 5 to 8 words
- description: 2 to 3 sentences, markdown allowed
- severity: exactly one of critical, high, medium, low

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing`

var specs = map[Stage]string{
	StageExtract:    extractSpec,
	StageCategorize: categorizeSpec,
	StageSummarize:  summarizeSpec,
	StageExecutive:  executiveSpec,
	StageAssess:     assessSpec,
	StageAnalyze:    analyzeSpec,
	StageConcerns:   concernsSpec,
}

// Spec returns the response specification for a stage.
// Specifications define the expected output format and are not overridable.
// Returns ErrInvalidStage if the stage is not recognized.
func Spec(stage Stage) (string, error) {
	text, ok := specs[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
