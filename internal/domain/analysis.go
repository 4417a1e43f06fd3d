package domain

import "fmt"

// AnalysisKind is a whole-corpus analysis type.
type AnalysisKind string

// Analysis kind constants.
const (
	AnalysisFAQ     AnalysisKind = "faq"
	AnalysisTopics  AnalysisKind = "topics"
	AnalysisMindMap AnalysisKind = "mindmap"
)

// IsValid checks if the kind is one of the supported values.
func (k AnalysisKind) IsValid() bool {
	return k == AnalysisFAQ || k == AnalysisTopics || k == AnalysisMindMap
}

// ParseAnalysisKind validates a raw kind string. Matching is exact,
// no case folding.
func ParseAnalysisKind(raw string) (AnalysisKind, error) {
	k := AnalysisKind(raw)
	if !k.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAnalysisKind, raw)
	}
	return k, nil
}
