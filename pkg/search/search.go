package search

import (
	"context"
	"fmt"

	"github.com/dossier-ai/dossier/pkg/config"
)

// Result is one organic search hit.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Provider returns ranked results for a query. Implementations preserve the
// upstream ranking order; callers rely on it when they cap how many results
// they take.
type Provider interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// NewProvider builds the provider named by SEARCH_PROVIDER.
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.SearchProvider {
	case "serper":
		if cfg.SerperApiKey == "" {
			return nil, fmt.Errorf("SERPER_API_KEY is not set")
		}
		return NewSerper(cfg.SerperApiKey, cfg.SearchCountry, cfg.SearchLanguage), nil
	case "arxiv":
		return NewArxiv(0), nil
	default:
		return nil, fmt.Errorf("unknown SEARCH_PROVIDER %q", cfg.SearchProvider)
	}
}
