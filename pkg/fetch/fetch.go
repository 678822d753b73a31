package fetch

import (
	"context"
	"strings"
)

// Fetcher retrieves the readable text behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Router picks a fetcher per URL. PDF links go through OCR when an OCR
// fetcher is configured; everything else goes through HTTP.
type Router struct {
	HTML Fetcher
	PDF  Fetcher
}

func (r *Router) Fetch(ctx context.Context, url string) (string, error) {
	if r.PDF != nil && isPDFLink(url) {
		return r.PDF.Fetch(ctx, url)
	}
	return r.HTML.Fetch(ctx, url)
}

func isPDFLink(url string) bool {
	u := strings.ToLower(url)
	return strings.HasSuffix(u, ".pdf") || strings.Contains(u, "arxiv.org/pdf/")
}
