package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const arxivEndpoint = "https://export.arxiv.org/api/query"

const defaultArxivResults = 5

type arxivFeed struct {
	XMLName xml.Name     `xml:"feed"`
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	Title   string      `xml:"title"`
	Summary string      `xml:"summary"`
	Links   []arxivLink `xml:"link"`
}

type arxivLink struct {
	Href string `xml:"href,attr"`
	Type string `xml:"type,attr"`
}

// Arxiv searches the arXiv Atom API. Result links point at the paper PDF so
// the fetch layer can route them through OCR. Entries without a PDF link are
// skipped.
type Arxiv struct {
	maxResults int
	endpoint   string
	client     *http.Client
}

func NewArxiv(maxResults int) *Arxiv {
	if maxResults <= 0 {
		maxResults = defaultArxivResults
	}
	return &Arxiv{
		maxResults: maxResults,
		endpoint:   arxivEndpoint,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (a *Arxiv) Search(ctx context.Context, query string) ([]Result, error) {
	params := url.Values{}
	params.Add("search_query", query)
	params.Add("max_results", strconv.Itoa(a.maxResults))
	params.Add("start", "0")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building arxiv request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("arxiv returned status %d: %s", resp.StatusCode, string(b))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading arxiv response: %w", err)
	}

	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("unmarshalling arxiv feed: %w", err)
	}

	results := make([]Result, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		r := Result{
			Title:   strings.TrimSpace(entry.Title),
			Snippet: strings.TrimSpace(entry.Summary),
		}
		for _, link := range entry.Links {
			if link.Type == "application/pdf" {
				r.Link = link.Href
				break
			}
		}
		if r.Link == "" {
			continue
		}
		results = append(results, r)
	}
	return results, nil
}
