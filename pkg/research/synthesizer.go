package research

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/dossier-ai/dossier/pkg/report"
)

const sectionPromptFormat = "Compile research findings for: %s\n\nContext:\n%s\n\nCreate a comprehensive section with references."

// Synthesizer turns an indexed question into a written report section by
// retrieving the most similar chunks and asking the model to compile them.
type Synthesizer struct {
	LLM        llms.Model
	Store      ContextStore
	RetrievalK int
	Logger     *slog.Logger
}

// Synthesize writes the section for one answered question. Retrieval and
// generation failures are both fatal; a section is never silently dropped.
func (s *Synthesizer) Synthesize(ctx context.Context, entry Entry) (report.Section, error) {
	docs, err := s.Store.Query(ctx, entry.Question, s.RetrievalK)
	if err != nil {
		return report.Section{}, fmt.Errorf("retrieving context for %q: %w", entry.Question, err)
	}

	contexts := make([]string, 0, len(docs))
	for _, doc := range docs {
		contexts = append(contexts, doc.Content)
	}

	prompt := fmt.Sprintf(sectionPromptFormat, entry.Question, strings.Join(contexts, "\n\n---\n\n"))

	content, err := generateWithRetry(ctx, s.LLM, s.Logger, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, func(content string) error {
		if strings.TrimSpace(content) == "" {
			return fmt.Errorf("empty section content")
		}
		return nil
	})
	if err != nil {
		return report.Section{}, fmt.Errorf("synthesizing section for %q: %w", entry.Question, err)
	}

	sources := make([]report.Source, 0, len(entry.Sources))
	for _, src := range entry.Sources {
		sources = append(sources, report.Source{Title: src.Title, Link: src.Link})
	}

	s.Logger.Info("synthesized section", "question", entry.Question, "contexts", len(contexts))

	return report.Section{
		Title:   entry.Question,
		Content: content,
		Sources: sources,
	}, nil
}
