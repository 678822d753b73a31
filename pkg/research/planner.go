package research

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// QuestionPlanner turns a topic into ordered sub-questions.
type QuestionPlanner struct {
	LLM          llms.Model
	MaxQuestions int
	Logger       *slog.Logger
}

const plannerPromptFormat = `Break down this research topic into key sub-questions:

%s

Return a numbered list with one question per line.`

// Plan asks the model for a breakdown and keeps the first MaxQuestions
// non-blank lines in response order. A model that cannot produce a single
// usable line fails the run.
func (p *QuestionPlanner) Plan(ctx context.Context, topic string) ([]string, error) {
	prompt := fmt.Sprintf(plannerPromptFormat, topic)

	content, err := generateWithRetry(ctx, p.LLM, p.Logger, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, func(content string) error {
		if len(splitQuestions(content, p.MaxQuestions)) == 0 {
			return fmt.Errorf("no questions in response")
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("generating sub-questions: %w", err)
	}

	questions := splitQuestions(content, p.MaxQuestions)
	p.Logger.Info("planned sub-questions", "count", len(questions))
	return questions, nil
}

// splitQuestions splits a model response into lines, discards blank lines,
// and caps the result. Line order and any list numbering the model produced
// are kept; the numbered line doubles as search query and section title.
func splitQuestions(content string, max int) []string {
	var questions []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		questions = append(questions, line)
		if max > 0 && len(questions) == max {
			break
		}
	}
	return questions
}
