package analysis

import "github.com/docubrain/ragdex/internal/domain"

const analysisSystem = "You analyze a document for the user. " +
	"First reason inside a <thinking>...</thinking> block, starting your response with the opening tag " +
	"and nothing before it. Immediately after the closing tag, write the result in exactly the " +
	"requested format with no surrounding commentary."

// kindInstructions holds the strict output grammar per analysis kind.
var kindInstructions = map[domain.AnalysisKind]string{
	domain.AnalysisFAQ: "Produce a FAQ for the document below. " +
		"Output alternating lines, each question on a line starting with \"Q: \" " +
		"and its answer on the next line starting with \"A: \". " +
		"No headings, no numbering, nothing else.",

	domain.AnalysisTopics: "List the main topics of the document below. " +
		"Output one bullet per topic in the form \"- **Topic name:** one-sentence explanation\". " +
		"No headings, nothing else.",

	domain.AnalysisMindMap: "Produce a mind map of the document below as a nested Markdown list. " +
		"The first line is a single top-level bullet with the central theme; deeper levels are " +
		"indented bullets. Output only the list.",
}

func buildAnalysisPrompt(kind domain.AnalysisKind, text string) string {
	return kindInstructions[kind] + "\n\nDocument:\n" + text
}
