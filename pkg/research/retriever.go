package research

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dossier-ai/dossier/pkg/fetch"
	"github.com/dossier-ai/dossier/pkg/search"
	"github.com/dossier-ai/dossier/pkg/splitter"
	"github.com/dossier-ai/dossier/pkg/vectorstore"
)

// Retriever gathers, chunks and indexes sources for one question at a time.
type Retriever struct {
	Search          search.Provider
	Fetcher         fetch.Fetcher
	Splitter        *splitter.TextSplitter
	Store           ContextStore
	MaxSources      int
	MaxContentChars int
	Logger          *slog.Logger
}

// Retrieve runs search, fetch, truncate, chunk and index for one question.
// Search and fetch failures are recovered into the outcome; the returned
// error is non-nil only when writing surviving chunks to the store fails,
// which is fatal to the run.
func (r *Retriever) Retrieve(ctx context.Context, question string) (QuestionOutcome, error) {
	outcome := QuestionOutcome{Question: question}

	results, err := r.Search.Search(ctx, question)
	if err != nil {
		outcome.SearchErr = fmt.Errorf("searching %q: %w", question, err)
		return outcome, nil
	}
	if len(results) == 0 {
		outcome.SearchErr = fmt.Errorf("no organic results for %q", question)
		return outcome, nil
	}
	if len(results) > r.MaxSources {
		results = results[:r.MaxSources]
	}

	// Fetches run concurrently, but results land in positional slots so
	// chunking and indexing keep search-result order.
	texts := make([]string, len(results))
	errs := make([]error, len(results))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 3)

	for i, res := range results {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			texts[i], errs[i] = r.Fetcher.Fetch(ctx, url)
		}(i, res.Link)
	}
	wg.Wait()

	var docs []vectorstore.Document
	for i, res := range results {
		if errs[i] != nil {
			outcome.Skipped = append(outcome.Skipped, SkippedSource{Title: res.Title, Link: res.Link, Err: errs[i]})
			continue
		}

		content := truncateRunes(texts[i], r.MaxContentChars)
		chunks, err := r.Splitter.SplitText(content)
		if err != nil {
			outcome.Skipped = append(outcome.Skipped, SkippedSource{Title: res.Title, Link: res.Link, Err: fmt.Errorf("splitting content: %w", err)})
			continue
		}
		if len(chunks) == 0 {
			outcome.Skipped = append(outcome.Skipped, SkippedSource{Title: res.Title, Link: res.Link, Err: fmt.Errorf("no content to index")})
			continue
		}

		outcome.Sources = append(outcome.Sources, SourceDocument{
			Title:  res.Title,
			Link:   res.Link,
			Chunks: chunks,
		})

		for _, chunk := range chunks {
			docs = append(docs, vectorstore.Document{
				Content: annotateChunk(res.Title, chunk),
				Metadata: map[string]interface{}{
					"title": res.Title,
					"link":  res.Link,
				},
			})
		}
	}

	if len(outcome.Sources) == 0 {
		return outcome, nil
	}

	if err := r.Store.Upsert(ctx, docs); err != nil {
		return outcome, fmt.Errorf("indexing sources for %q: %w", question, err)
	}

	r.Logger.Info("indexed question sources", "question", question, "sources", len(outcome.Sources), "chunks", len(docs))
	return outcome, nil
}

// annotateChunk prefixes a chunk with its source title so retrieved context
// stays attributable inside the synthesis prompt.
func annotateChunk(title, chunk string) string {
	return fmt.Sprintf("Source: %s\nContent: %s", title, chunk)
}

// truncateRunes caps text at max characters, counting runes so multi-byte
// text is never cut mid-character.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
