package domain

import (
	"errors"
	"testing"
)

func TestAnalysisKindIsValid(t *testing.T) {
	valid := []AnalysisKind{AnalysisFAQ, AnalysisTopics, AnalysisMindMap}
	for _, k := range valid {
		if !k.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", k)
		}
	}

	invalid := []AnalysisKind{"", "summary", "FAQ", "mind_map"}
	for _, k := range invalid {
		if k.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", k)
		}
	}
}

func TestParseAnalysisKind(t *testing.T) {
	k, err := ParseAnalysisKind("topics")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if k != AnalysisTopics {
		t.Errorf("got %q, want %q", k, AnalysisTopics)
	}

	_, err = ParseAnalysisKind("Topics")
	if !errors.Is(err, ErrUnknownAnalysisKind) {
		t.Errorf("expected ErrUnknownAnalysisKind, got %v", err)
	}
}
