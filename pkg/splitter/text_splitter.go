package splitter

import (
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 100
)

// TextSplitter cuts document text into overlapping chunks for indexing. It
// prefers natural boundaries (paragraphs, then lines, then spaces) and falls
// back to fixed windows when none exist, so chunks never exceed the chunk
// size and consecutive raw-text chunks share exactly the overlap.
type TextSplitter struct {
	splitter textsplitter.TextSplitter
}

// NewRecursiveCharacterTextSplitter builds a splitter with the given window
// and overlap. Non-positive arguments fall back to the defaults.
func NewRecursiveCharacterTextSplitter(chunkSize, chunkOverlap int) *TextSplitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
	}

	ts := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	)

	return &TextSplitter{splitter: ts}
}

// SplitText splits text into chunks, dropping any empty or whitespace-only
// chunk. Splitting the same input always yields the same chunks.
func (ts *TextSplitter) SplitText(text string) ([]string, error) {
	raw, err := ts.splitter.SplitText(text)
	if err != nil {
		return nil, err
	}

	chunks := make([]string, 0, len(raw))
	for _, c := range raw {
		if strings.TrimSpace(c) == "" {
			continue
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}
