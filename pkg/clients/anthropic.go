package clients

import (
	"fmt"

	"github.com/tmc/langchaingo/llms/anthropic"
)

const (
	DefaultAnthropicModel = "claude-3-5-haiku-20241022"
	LargeAnthropicModel   = "claude-sonnet-4-20250514"
)

// AnthropicAi builds a Claude chat model.
func AnthropicAi(apiKey, model string) (*anthropic.LLM, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set")
	}
	if model == "" {
		model = DefaultAnthropicModel
	}

	llm, err := anthropic.New(anthropic.WithToken(apiKey), anthropic.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("creating anthropic client: %w", err)
	}

	return llm, nil
}
