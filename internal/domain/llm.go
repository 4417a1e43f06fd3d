package domain

import "context"

// LLM is the opaque text-generation capability: prompt plus optional
// system instruction in, text out, or an error carrying a reason.
type LLM interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}
