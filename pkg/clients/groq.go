package clients

import (
	"fmt"

	"github.com/tmc/langchaingo/llms/openai"
)

// groqBaseURL is Groq's OpenAI-compatible endpoint.
const groqBaseURL = "https://api.groq.com/openai/v1"

const (
	DefaultGroqModel = "llama-3.1-8b-instant"
	LargeGroqModel   = "llama-3.3-70b-versatile"
)

// Groq builds a chat model served by Groq. The API speaks the OpenAI wire
// format, so the OpenAI client is pointed at Groq's base URL.
func Groq(apiKey, model string) (*openai.LLM, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY is not set")
	}
	if model == "" {
		model = DefaultGroqModel
	}

	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(model),
		openai.WithBaseURL(groqBaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("creating groq client: %w", err)
	}

	return llm, nil
}
