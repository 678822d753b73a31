package research

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/dossier-ai/dossier/pkg/search"
	"github.com/dossier-ai/dossier/pkg/vectorstore"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// shrinkRetryDelay keeps retry-path tests from sleeping for real.
func shrinkRetryDelay(t *testing.T) {
	t.Helper()
	old := retryBaseDelay
	retryBaseDelay = time.Millisecond
	t.Cleanup(func() { retryBaseDelay = old })
}

// scripted pairs a prompt substring with the response to return for it.
type scripted struct {
	match string
	text  string
}

// fakeLLM returns canned content. Responses are resolved in order: forced
// errors first, then the consumable sequence, then the first matching
// script entry, then the fallback.
type fakeLLM struct {
	mu       sync.Mutex
	errCount int
	err      error
	sequence []string
	script   []scripted
	fallback string
	prompts  []string
}

func (f *fakeLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prompt := flattenMessages(messages)
	f.prompts = append(f.prompts, prompt)

	if f.errCount > 0 {
		f.errCount--
		if f.err != nil {
			return nil, f.err
		}
		return &llms.ContentResponse{}, nil
	}

	if len(f.sequence) > 0 {
		content := f.sequence[0]
		f.sequence = f.sequence[1:]
		return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: content}}}, nil
	}

	for _, s := range f.script {
		if strings.Contains(prompt, s.match) {
			return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: s.text}}}, nil
		}
	}

	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.fallback}}}, nil
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := f.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, options...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices")
	}
	return resp.Choices[0].Content, nil
}

func flattenMessages(messages []llms.MessageContent) string {
	var sb strings.Builder
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				sb.WriteString(text.Text)
			}
		}
	}
	return sb.String()
}

// fakeSearch serves canned results per query and can fail selected queries.
type fakeSearch struct {
	mu      sync.Mutex
	results map[string][]search.Result
	errFor  map[string]error
	calls   []string
}

func (f *fakeSearch) Search(ctx context.Context, query string) ([]search.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, query)
	if err, ok := f.errFor[query]; ok {
		return nil, err
	}
	return f.results[query], nil
}

// fakeFetcher serves canned page text per URL. Safe for concurrent use.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	errs  map[string]error
	calls []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return "", err
	}
	page, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("no page for %s", url)
	}
	return page, nil
}

// fakeStore records upserted documents and serves canned query results.
type fakeStore struct {
	mu        sync.Mutex
	upserted  []vectorstore.Document
	upsertErr error
	queryDocs map[string][]vectorstore.Document
	queryErr  error
	queries   []string
	lastK     int
}

func (f *fakeStore) Upsert(ctx context.Context, docs []vectorstore.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, docs...)
	return nil
}

func (f *fakeStore) Query(ctx context.Context, text string, k int) ([]vectorstore.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.queries = append(f.queries, text)
	f.lastK = k
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.queryDocs[text], nil
}
