package clients

import (
	"context"
	"fmt"

	"github.com/dossier-ai/dossier/pkg/config"
	"github.com/tmc/langchaingo/llms"
)

// NewChatModel builds the chat model named by LLM_PROVIDER. The returned
// value is the only LLM handle the pipeline sees; callers inject it rather
// than constructing models deeper in the stack.
func NewChatModel(ctx context.Context, cfg *config.Config) (llms.Model, error) {
	switch cfg.LLMProvider {
	case "groq":
		return Groq(cfg.GroqApiKey, cfg.GroqModel)
	case "google":
		return GoogleAi(ctx, cfg.GoogleApiKey, cfg.GoogleModel)
	case "anthropic":
		return AnthropicAi(cfg.AnthropicApiKey, cfg.AnthropicModel)
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}
}
