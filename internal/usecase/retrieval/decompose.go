package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/docubrain/ragdex/internal/domain"
)

const decomposeSystem = "You rewrite search queries. " +
	"Given a user question, produce diverse search queries that together cover " +
	"the question's aspects. Output one query per line with no numbering, " +
	"no bullets and no extra commentary."

// Decomposer expands a user query into sub-queries via the LLM.
// Decomposition is best-effort: any failure degrades to single-query
// retrieval with the original query.
type Decomposer struct {
	llm     domain.LLM
	n       int
	timeout time.Duration
	logger  *zap.Logger
}

// NewDecomposer creates a query decomposer producing at most n sub-queries.
func NewDecomposer(llm domain.LLM, n int, timeout time.Duration, logger *zap.Logger) *Decomposer {
	return &Decomposer{llm: llm, n: n, timeout: timeout, logger: logger}
}

// Decompose returns up to n sub-queries for the given query. On LLM
// failure, malformed output or timeout it returns the original query
// alone, never an error.
func (d *Decomposer) Decompose(ctx context.Context, query string) []string {
	if d.n <= 1 {
		return []string{query}
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	prompt := fmt.Sprintf("Generate %d search queries for this question:\n\n%s", d.n, query)

	raw, err := d.llm.Generate(ctx, decomposeSystem, prompt)
	if err != nil {
		d.logger.Warn("Query decomposition failed, falling back to original query", zap.Error(err))
		return []string{query}
	}

	subs := parseSubQueries(raw, d.n)
	if len(subs) == 0 {
		d.logger.Warn("Query decomposition returned no usable sub-queries",
			zap.String("raw", raw))
		return []string{query}
	}

	// Short output pads back to n with the original query so retrieval
	// always fans out the configured number of searches and the
	// verbatim question stays in the mix.
	for len(subs) < d.n {
		subs = append(subs, query)
	}
	return subs
}

// parseSubQueries extracts up to n non-empty lines, stripping list
// markers the model sometimes adds despite instructions.
func parseSubQueries(raw string, n int) []string {
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, n)
	for _, line := range lines {
		q := strings.TrimSpace(line)
		q = strings.TrimLeft(q, "-*0123456789. )")
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		out = append(out, q)
		if len(out) == n {
			break
		}
	}
	return out
}
