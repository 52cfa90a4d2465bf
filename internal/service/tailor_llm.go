package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/timmy/resumetailor/internal/domain"
	"github.com/timmy/resumetailor/internal/prompts"
)

// TailorLLM generates tailored resume documents via the tailoring agent.
type TailorLLM struct {
	llm *LLMClient
}

// NewTailorLLM creates a new tailoring agent client.
// Parameters:
//   - llm: chat completions client to use.
//
// Returns:
//   - *TailorLLM: initialized agent wrapper.
func NewTailorLLM(llm *LLMClient) *TailorLLM {
	return &TailorLLM{llm: llm}
}

// GetModel returns the underlying model identifier.
func (t *TailorLLM) GetModel() string {
	return t.llm.GetModel()
}

// Generate runs the tailoring agent with a prepared user prompt and decodes
// the reply into the canonical resume structure.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - userPrompt: rendered prompt combining resume and job posting.
//
// Returns:
//   - *domain.TailoredResume: decoded tailored resume.
//   - error: non-nil if the call fails or the reply does not decode.
func (t *TailorLLM) Generate(ctx context.Context, userPrompt string) (*domain.TailoredResume, error) {
	content, err := t.llm.Complete(ctx, prompts.TailorSystemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	extracted, err := extractJSON(content)
	if err != nil {
		return nil, fmt.Errorf("tailoring agent returned malformed response: %w", err)
	}

	var doc domain.TailoredResume
	if err := json.Unmarshal([]byte(extracted), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode tailored resume: %w", err)
	}

	return &doc, nil
}
