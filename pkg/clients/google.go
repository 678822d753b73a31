package clients

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/googleai"
)

const (
	DefaultGoogleModel = "gemini-3-flash-preview"
	ProGoogleModel     = "gemini-3-pro-preview"
)

// GoogleAi builds a Gemini chat model.
// See https://ai.google.dev/gemini-api/docs/models/gemini for possible models.
func GoogleAi(ctx context.Context, apiKey, model string) (*googleai.GoogleAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY is not set")
	}
	if model == "" {
		model = DefaultGoogleModel
	}

	llm, err := googleai.New(ctx, googleai.WithAPIKey(apiKey), googleai.WithDefaultModel(model))
	if err != nil {
		return nil, fmt.Errorf("creating google client: %w", err)
	}

	return llm, nil
}
