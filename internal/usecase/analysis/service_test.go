package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/docubrain/ragdex/internal/domain"
)

type mockLLM struct {
	response string
	err      error
	prompt   string
}

func (m *mockLLM) Generate(_ context.Context, _, prompt string) (string, error) {
	m.prompt = prompt
	return m.response, m.err
}

func testService(llm *mockLLM) *Service {
	return New(llm, Config{MaxContextChars: 100, LLMTimeout: time.Second}, zap.NewNop())
}

func TestAnalyze_FAQ(t *testing.T) {
	llm := &mockLLM{response: "<thinking>two questions stand out</thinking>Q: What is it?\nA: A thing."}
	svc := testService(llm)

	got, err := svc.Analyze(context.Background(), domain.AnalysisFAQ, "document text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(got, "Q: ") {
		t.Errorf("expected FAQ output, got %q", got)
	}
	if !strings.Contains(llm.prompt, "Q: ") || !strings.Contains(llm.prompt, "document text") {
		t.Errorf("prompt missing instruction or document:\n%s", llm.prompt)
	}
}

func TestAnalyze_EachKindHasDistinctInstruction(t *testing.T) {
	responses := map[domain.AnalysisKind]string{
		domain.AnalysisFAQ:     "Q: q?\nA: a.",
		domain.AnalysisTopics:  "- **Topic:** out",
		domain.AnalysisMindMap: "- theme",
	}
	kinds := []domain.AnalysisKind{domain.AnalysisFAQ, domain.AnalysisTopics, domain.AnalysisMindMap}
	seen := map[string]bool{}
	for _, kind := range kinds {
		llm := &mockLLM{response: responses[kind]}
		svc := testService(llm)
		if _, err := svc.Analyze(context.Background(), kind, "text"); err != nil {
			t.Fatalf("%s: unexpected error: %v", kind, err)
		}
		if seen[llm.prompt] {
			t.Errorf("%s: prompt not distinct", kind)
		}
		seen[llm.prompt] = true
	}
}

func TestAnalyze_UnknownKind(t *testing.T) {
	svc := testService(&mockLLM{})

	_, err := svc.Analyze(context.Background(), "summary", "text")
	if !errors.Is(err, domain.ErrUnknownAnalysisKind) {
		t.Fatalf("expected ErrUnknownAnalysisKind, got %v", err)
	}
}

func TestAnalyze_TruncatesLongInput(t *testing.T) {
	llm := &mockLLM{response: "- **Topic:** out"}
	svc := testService(llm) // max 100 chars

	long := strings.Repeat("a", 150) + "TAIL"
	if _, err := svc.Analyze(context.Background(), domain.AnalysisTopics, long); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(llm.prompt, "TAIL") {
		t.Error("input was not truncated from the end")
	}
}

func TestAnalyze_LLMFailureSurfaced(t *testing.T) {
	llm := &mockLLM{err: domain.NewSynthesisError("completion request failed", errors.New("down"))}
	svc := testService(llm)

	_, err := svc.Analyze(context.Background(), domain.AnalysisFAQ, "text")
	if !errors.Is(err, domain.ErrSynthesisFailed) {
		t.Fatalf("expected ErrSynthesisFailed, got %v", err)
	}
}

func TestAnalyze_LeadingMarkerEnforced(t *testing.T) {
	tests := []struct {
		name     string
		kind     domain.AnalysisKind
		response string
		wantErr  bool
	}{
		{"faq ok", domain.AnalysisFAQ, "Q: What?\nA: That.", false},
		{"faq prose", domain.AnalysisFAQ, "Here are some questions:\nQ: What?", true},
		{"topics ok", domain.AnalysisTopics, "- **Topic:** explained", false},
		{"topics star bullet ok", domain.AnalysisTopics, "* **Topic:** explained", false},
		{"topics prose", domain.AnalysisTopics, "The main topics are...", true},
		{"mindmap ok", domain.AnalysisMindMap, "- central theme\n  - branch", false},
		{"mindmap heading ok", domain.AnalysisMindMap, "# central theme", false},
		{"mindmap prose", domain.AnalysisMindMap, "This document is about...", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testService(&mockLLM{response: tt.response})

			_, err := svc.Analyze(context.Background(), tt.kind, "text")
			if tt.wantErr {
				if !errors.Is(err, domain.ErrSynthesisFailed) {
					t.Fatalf("expected ErrSynthesisFailed, got %v", err)
				}
				if reason := domain.SynthesisReason(err); !strings.Contains(reason, "marker") {
					t.Errorf("reason should name the missing marker, got %q", reason)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestAnalyze_NoThinkingMarkers(t *testing.T) {
	llm := &mockLLM{response: "- **Topic:** plain output without thinking"}
	svc := testService(llm)

	got, err := svc.Analyze(context.Background(), domain.AnalysisTopics, "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "- **Topic:** plain output without thinking" {
		t.Errorf("unexpected output: %q", got)
	}
}
