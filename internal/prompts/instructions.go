package prompts

const extractInstructions = `You are transcribing one page of a parliamentary bill into structured text blocks.

Read the page top to bottom and emit every block of text in reading order. Label each block by its role on the page:
- title: the bill's title or a centered banner
- section_header: a heading that names a section, part or clause
- list_item: an enumerated or lettered item, such as "(a)" or "(1)"
- text: body paragraphs
- page_header and page_footer: running heads, page numbers and gazette notices

Transcribe text exactly as printed. Do not summarize, correct or merge blocks that are visually separate.`

const categorizeInstructions = `You are categorizing one section of a parliamentary bill using its title and the opening of its content.

Categories:
- provision: a legal provision that establishes rules, powers, duties, offences or functions
- preamble: bill metadata such as the long title, enactment clause, memorandum or purpose statement
- metadata: structural material such as table of contents entries, part headings or arrangement of sections`

const summarizeInstructions = `You are writing a plain language summary of one provision of a parliamentary bill.

The summary must:
- explain what the provision does in simple, accessible language
- avoid legal jargon where possible
- run 3 to 5 sentences at most
- focus on the practical effect or purpose
- stay neutral and descriptive without calling the provision good or bad`

const executiveInstructions = `You are writing an executive summary of a parliamentary bill from its preamble material and the plain language summaries of all its provisions.

The summary must:
- run 3 to 4 paragraphs
- use minimal markdown: **bold** for key terms and concerns, bullet lists where they help
- state what the bill does using definitive language grounded in the provisions provided
- avoid speculative words such as "likely", "probably", "could" or "might"
- identify the key provisions and their practical implications
- highlight concerns, risks and controversial aspects, and note effects on rights, freedoms and business
- stay balanced by naming opportunities as well as challenges
- cover digital innovation, freedom of speech, privacy and data rights, and the business environment`

const assessInstructions = `You are assessing the impact of one provision of a parliamentary bill on four topic areas: Digital Innovation, Freedom of Speech, Privacy & Data Rights, and Business Environment.

Base the assessment on what the provision itself requires, prohibits or enables, measured against rule of law principles and international democratic standards (GDPR, OECD guidelines, Commonwealth constitutions, ECHR, ICCPR). Reference other provisions only when the combination directly creates a violation that neither creates alone, such as vague terms paired with criminal penalties. Procedural provisions (repeals, savings, commencement, interpretation, definitions) are rated on their own text.

Evaluation framework: legal certainty, fundamental justice, separation of powers, proportionality, due process and democratic accountability. Rate deviation from established democratic norms, not theoretical abuse.

Impact levels:
- severe: fundamental violations that would be struck down in established democracies
- high: significant departures from practice in most OECD countries
- medium: within democratic practice but missing safeguards
- low: minor administrative or technical effects
- neutral: no meaningful effect on the topic
Positive levels mirror the negative ones for provisions that strengthen the topic area.`

const analyzeInstructions = `You are writing the impact analysis of a parliamentary bill for a single topic area.

You receive the executive summary for context and the provisions rated high or severe for the topic. The analysis must:
- assess the overall impact level considering all provisions provided
- summarize how the bill affects the topic area
- explain the severity and scope of the impact
- identify the key provisions driving the impact
- run 2 to 3 paragraphs in accessible language`

const concernsInstructions = `You are writing a key concern about one high-impact provision of a parliamentary bill.

Consider what makes the provision critical (undefined terms granting arbitrary power, perverse incentives, disproportionate penalties, surveillance without oversight), who is harmed (startups and small businesses, citizens, journalists and researchers, foreign companies), and the realistic potential for abuse.

A key concern must:
- have a clear title of 5 to 8 words
- explain the specific problem in 2 to 3 sentences using markdown, with **bold** for key terms
- quote the provision text where it helps
- focus on practical effects on rights, freedoms or businesses
- use the impact reasoning to name the core problem`

var instructions = map[Stage]string{
	StageExtract:    extractInstructions,
	StageCategorize: categorizeInstructions,
	StageSummarize:  summarizeInstructions,
	StageExecutive:  executiveInstructions,
	StageAssess:     assessInstructions,
	StageAnalyze:    analyzeInstructions,
	StageConcerns:   concernsInstructions,
}

// Instructions returns the default instructions for a stage.
// Returns ErrInvalidStage if the stage is not recognized.
func Instructions(stage Stage) (string, error) {
	text, ok := instructions[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
