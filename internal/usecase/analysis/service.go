package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/docubrain/ragdex/internal/domain"
	"github.com/docubrain/ragdex/internal/usecase/chat"
)

// Config holds analysis generation parameters.
type Config struct {
	MaxContextChars int
	LLMTimeout      time.Duration
}

// Service generates whole-document analyses (FAQ, topics, mind map).
type Service struct {
	llm    domain.LLM
	cfg    Config
	logger *zap.Logger
}

// New creates an analysis service.
func New(llm domain.LLM, cfg Config, logger *zap.Logger) *Service {
	return &Service{llm: llm, cfg: cfg, logger: logger}
}

// Analyze renders the kind-specific instruction over the document text
// and returns the parsed answer. Text longer than the context limit is
// truncated from the end.
func (s *Service) Analyze(ctx context.Context, kind domain.AnalysisKind, text string) (string, error) {
	if !kind.IsValid() {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownAnalysisKind, kind)
	}

	text = truncate(text, s.cfg.MaxContextChars)
	prompt := buildAnalysisPrompt(kind, text)

	llmCtx, cancel := context.WithTimeout(ctx, s.cfg.LLMTimeout)
	defer cancel()

	response, err := s.llm.Generate(llmCtx, analysisSystem, prompt)
	if err != nil {
		return "", fmt.Errorf("generate %s analysis: %w", kind, err)
	}

	_, answer := chat.SplitThinking(response)
	if answer == "" {
		return "", domain.NewSynthesisError("model returned an empty analysis", nil)
	}
	if err := checkLeadingMarker(kind, answer); err != nil {
		return "", err
	}

	s.logger.Debug("Analysis complete",
		zap.String("kind", string(kind)),
		zap.Int("input_chars", len(text)),
		zap.Int("output_chars", len(answer)))

	return answer, nil
}

// leadingMarkers is the minimal grammar check per kind: the answer has
// to open with the format its instruction demands. Deeper validation
// stays with the model.
var leadingMarkers = map[domain.AnalysisKind][]string{
	domain.AnalysisFAQ:     {"Q:"},
	domain.AnalysisTopics:  {"-", "*"},
	domain.AnalysisMindMap: {"-", "*", "#"},
}

func checkLeadingMarker(kind domain.AnalysisKind, answer string) error {
	for _, marker := range leadingMarkers[kind] {
		if strings.HasPrefix(answer, marker) {
			return nil
		}
	}
	return domain.NewSynthesisError(
		fmt.Sprintf("%s analysis does not start with the expected marker", kind), nil)
}

// truncate cuts text to at most max runes, keeping the beginning.
func truncate(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
