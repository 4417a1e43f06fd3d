package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/docubrain/ragdex/internal/domain"
)

// Source is a cited document in a chat answer.
type Source struct {
	Citation     int
	DocumentName string
	Score        float64
}

// Result is a completed chat turn.
type Result struct {
	Answer   string
	Thinking string
	Sources  []Source
}

// Config holds synthesis parameters.
type Config struct {
	ContextBudgetChars int
	LLMTimeout         time.Duration
}

// Turn roles in the conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one prior message in the conversation.
type Turn struct {
	Role string
	Text string
}

// Request is one chat turn to answer.
type Request struct {
	UserID  string
	History []Turn
	Message string
	// SystemPrompt replaces the default synthesis instruction when set.
	SystemPrompt string
}

// Service drives the retrieve, assemble, synthesize chat turn.
type Service struct {
	retriever Retriever
	llm       domain.LLM
	cfg       Config
	logger    *zap.Logger
}

// New creates a chat service.
func New(retriever Retriever, llm domain.LLM, cfg Config, logger *zap.Logger) *Service {
	return &Service{retriever: retriever, llm: llm, cfg: cfg, logger: logger}
}

// Chat answers one user message against the user's indexed documents.
// With no retrievable context the message goes to the model as-is,
// without context or citation instructions. Synthesis failures surface
// as ErrSynthesisFailed with a reason, never as an empty answer.
func (s *Service) Chat(ctx context.Context, req Request) (Result, error) {
	candidates, err := s.retriever.Retrieve(ctx, req.UserID, req.Message)
	if err != nil {
		return Result{}, fmt.Errorf("retrieve context: %w", err)
	}

	contextBlock, entries := AssembleContext(candidates, s.cfg.ContextBudgetChars)

	prompt := req.Message
	if len(entries) > 0 {
		prompt = buildRAGPrompt(contextBlock, entries, req.Message)
	}
	if transcript := renderHistory(req.History); transcript != "" {
		prompt = transcript + prompt
	}

	system := synthesisSystem
	if req.SystemPrompt != "" {
		system = req.SystemPrompt
	}

	llmCtx, cancel := context.WithTimeout(ctx, s.cfg.LLMTimeout)
	defer cancel()

	response, err := s.llm.Generate(llmCtx, system, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("synthesize answer: %w", err)
	}

	thinking, answer := SplitThinking(response)
	if answer == "" {
		return Result{}, domain.NewSynthesisError("model returned an empty answer", nil)
	}

	sources := citedSources(answer, entries)

	s.logger.Debug("Chat turn complete",
		zap.String("user_id", req.UserID),
		zap.Int("sources", len(sources)),
		zap.Int("answer_len", len(answer)))

	return Result{Answer: answer, Thinking: thinking, Sources: sources}, nil
}

// citedSources resolves the [n] markers the model actually used back to
// their context entries. Entries the answer never cites are dropped.
func citedSources(answer string, entries []ContextEntry) []Source {
	sources := make([]Source, 0, len(entries))
	for _, e := range entries {
		if !strings.Contains(answer, fmt.Sprintf("[%d]", e.Citation)) {
			continue
		}
		sources = append(sources, Source{
			Citation:     e.Citation,
			DocumentName: e.DocumentName,
			Score:        e.Score,
		})
	}
	return sources
}
