package research

import (
	"context"
	"fmt"

	"github.com/dossier-ai/dossier/pkg/vectorstore"
)

// SourceDocument is one fetched, truncated and chunked source kept for a
// question. Immutable once built.
type SourceDocument struct {
	Title  string   `json:"title"`
	Link   string   `json:"link"`
	Chunks []string `json:"chunks"`
}

// Entry pairs a question with the sources that survived for it. An Entry is
// only ever created with at least one source.
type Entry struct {
	Question string           `json:"question"`
	Sources  []SourceDocument `json:"sources"`
}

// DroppedQuestion records a planned question that kept no usable source and
// therefore gets no report section.
type DroppedQuestion struct {
	Question string `json:"question"`
	Reason   string `json:"reason"`
}

// RunState accumulates what one research run gathered. Each run owns
// exactly one RunState; the engine threads it through the stages and nothing
// else mutates it. Entries appear in plan order.
type RunState struct {
	Topic   string            `json:"topic"`
	Entries []Entry           `json:"entries"`
	Dropped []DroppedQuestion `json:"dropped,omitempty"`
}

// SkippedSource records a search result that produced no usable content.
type SkippedSource struct {
	Title string
	Link  string
	Err   error
}

// QuestionOutcome is the retriever's full account for one question. Sources
// holds what survived; Skipped and SearchErr carry the recovered failures
// for the caller to log or count.
type QuestionOutcome struct {
	Question  string
	Sources   []SourceDocument
	Skipped   []SkippedSource
	SearchErr error
}

// Dropped reports whether the question kept no source.
func (o QuestionOutcome) Dropped() bool { return len(o.Sources) == 0 }

// DropReason summarizes why a question is dropped. Empty for kept questions.
func (o QuestionOutcome) DropReason() string {
	if !o.Dropped() {
		return ""
	}
	switch {
	case o.SearchErr != nil:
		return o.SearchErr.Error()
	case len(o.Skipped) > 0:
		return fmt.Sprintf("all %d fetched results were unusable", len(o.Skipped))
	default:
		return "no search results"
	}
}

// ContextStore is the slice of a vector collection the pipeline needs:
// append-only writes and similarity reads over the same embedding space.
type ContextStore interface {
	Upsert(ctx context.Context, docs []vectorstore.Document) error
	Query(ctx context.Context, text string, k int) ([]vectorstore.Document, error)
}
