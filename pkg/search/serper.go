package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// serperEndpoint is the serper.dev Google search API, see https://serper.dev/.
const serperEndpoint = "https://google.serper.dev/search"

// Serper queries Google through the serper.dev API.
type Serper struct {
	apiKey   string
	country  string
	language string
	endpoint string
	client   *http.Client
}

func NewSerper(apiKey, country, language string) *Serper {
	return &Serper{
		apiKey:   apiKey,
		country:  country,
		language: language,
		endpoint: serperEndpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *Serper) Search(ctx context.Context, query string) ([]Result, error) {
	payload := map[string]any{"q": query, "gl": s.country, "hl": s.language}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshalling serper payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building serper request: %w", err)
	}
	req.Header.Set("X-API-KEY", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serper request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("serper returned status %d: %s", resp.StatusCode, string(b))
	}

	var raw struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding serper response: %w", err)
	}

	results := make([]Result, 0, len(raw.Organic))
	for _, item := range raw.Organic {
		results = append(results, Result{Title: item.Title, Link: item.Link, Snippet: item.Snippet})
	}
	return results, nil
}
