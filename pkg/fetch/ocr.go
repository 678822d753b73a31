package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const mistralOCREndpoint = "https://api.mistral.ai/v1/ocr"

type ocrPage struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

type ocrResponse struct {
	Pages []ocrPage `json:"pages"`
}

// OCRFetcher extracts the text of a PDF through the Mistral OCR API.
type OCRFetcher struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

func NewOCR(apiKey string, timeout time.Duration) *OCRFetcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OCRFetcher{
		apiKey:   apiKey,
		endpoint: mistralOCREndpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (f *OCRFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if f.apiKey == "" {
		return "", fmt.Errorf("MISTRAL_API_KEY is not set")
	}
	// Mistral rejects plain http document URLs.
	url = strings.Replace(url, "http://", "https://", 1)

	payload := map[string]any{
		"model": "mistral-ocr-latest",
		"document": map[string]string{
			"type":         "document_url",
			"document_url": url,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshalling ocr payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.apiKey)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ocr returned status %d: %s", resp.StatusCode, string(b))
	}

	var out ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding ocr response: %w", err)
	}

	var b strings.Builder
	for _, page := range out.Pages {
		b.WriteString(page.Markdown)
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String()), nil
}
