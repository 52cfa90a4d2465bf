package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/timmy/resumetailor/internal/prompts"
)

// ParserService converts raw resume text into the canonical resume JSON
// document using the parser LLM.
type ParserService struct {
	llm *LLMClient
}

// NewParserService creates a new parser service.
// Parameters:
//   - llm: chat completions client to use.
//
// Returns:
//   - *ParserService: initialized service.
func NewParserService(llm *LLMClient) *ParserService {
	return &ParserService{llm: llm}
}

// GetModel returns the underlying model identifier.
func (s *ParserService) GetModel() string {
	return s.llm.GetModel()
}

// ParseResume sends resume text to the parser agent and returns the
// extracted resume as a JSON document.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - resumeText: plain text extracted from the uploaded file.
//
// Returns:
//   - string: extracted resume JSON.
//   - error: non-nil if the call fails or the response is not valid JSON.
func (s *ParserService) ParseResume(ctx context.Context, resumeText string) (string, error) {
	content, err := s.llm.Complete(ctx, prompts.ParserSystemPrompt, prompts.ParserUserPrompt(resumeText))
	if err != nil {
		return "", err
	}

	extracted, err := extractJSON(content)
	if err != nil {
		return "", fmt.Errorf("parser returned malformed response: %w", err)
	}

	if !json.Valid([]byte(extracted)) {
		return "", fmt.Errorf("parser returned invalid JSON")
	}

	return extracted, nil
}
