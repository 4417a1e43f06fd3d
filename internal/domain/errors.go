package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrParse signals unsupported or unreadable document content.
	ErrParse = errors.New("parse failed")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrIndexCorrupted signals a corrupted or unreadable persisted index.
	ErrIndexCorrupted = errors.New("index corrupted")
	// ErrSynthesisFailed signals a failed or safety-blocked LLM synthesis call.
	ErrSynthesisFailed = errors.New("synthesis failed")
	// ErrUnknownAnalysisKind signals an analysis kind outside the closed set.
	ErrUnknownAnalysisKind = errors.New("unknown analysis kind")
	// ErrJobNotFound signals a missing ingestion job.
	ErrJobNotFound = errors.New("job not found")
)

// SynthesisError wraps ErrSynthesisFailed with the failure reason
// (provider error detail or safety-block category) so callers can
// distinguish "service unavailable" from "blocked".
type SynthesisError struct {
	Reason string
	Cause  error
}

func (e *SynthesisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", ErrSynthesisFailed.Error(), e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrSynthesisFailed.Error(), e.Reason)
}

func (e *SynthesisError) Unwrap() error { return ErrSynthesisFailed }

// NewSynthesisError creates a synthesis error with a reason. cause may be nil.
func NewSynthesisError(reason string, cause error) error {
	return &SynthesisError{Reason: reason, Cause: cause}
}

// SynthesisReason extracts the reason from a synthesis error chain,
// or returns the generic sentinel message.
func SynthesisReason(err error) string {
	var se *SynthesisError
	if errors.As(err, &se) {
		return se.Reason
	}
	return ErrSynthesisFailed.Error()
}
