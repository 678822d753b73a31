package embeddings

import (
	"context"
	"fmt"

	"github.com/dossier-ai/dossier/pkg/config"
)

// Embedder turns text into vectors. One embedder is constructed at process
// start and injected into everything that indexes or queries; documents and
// queries must go through the same embedder to land in the same space.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// NewEmbedder builds the embedder named by EMBEDDING_PROVIDER.
func NewEmbedder(ctx context.Context, cfg *config.Config) (Embedder, error) {
	switch cfg.EmbeddingProvider {
	case "openai":
		return NewOpenAIEmbedder(cfg.OpenAIApiKey, cfg.EmbeddingModel)
	case "google":
		return NewGoogleEmbedder(ctx, cfg.EmbeddingModel, cfg.GoogleApiKey, cfg.EmbeddingDim)
	default:
		return nil, fmt.Errorf("unknown EMBEDDING_PROVIDER %q", cfg.EmbeddingProvider)
	}
}
