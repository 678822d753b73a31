package research

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/dossier-ai/dossier/pkg/clients"
	"github.com/dossier-ai/dossier/pkg/config"
	"github.com/dossier-ai/dossier/pkg/database"
	"github.com/dossier-ai/dossier/pkg/embeddings"
	"github.com/dossier-ai/dossier/pkg/fetch"
	"github.com/dossier-ai/dossier/pkg/report"
	"github.com/dossier-ai/dossier/pkg/search"
	"github.com/dossier-ai/dossier/pkg/splitter"
	"github.com/dossier-ai/dossier/pkg/vectorstore"
)

const maxGenerateAttempts = 3

// retryBaseDelay is the unit of linear backoff between generation attempts.
var retryBaseDelay = time.Second

// generateWithRetry attempts to generate content and validates it using the
// provided function. It retries up to maxGenerateAttempts times if the LLM
// fails or the validator returns an error.
func generateWithRetry(ctx context.Context, llm llms.Model, logger *slog.Logger, prompts []llms.MessageContent, validator func(string) error) (string, error) {
	var lastErr error

	for i := 0; i < maxGenerateAttempts; i++ {
		if i > 0 {
			logger.Warn("Retrying LLM generation", "attempt", i+1, "last_error", lastErr)
			time.Sleep(retryBaseDelay * time.Duration(i))
		}

		resp, err := llm.GenerateContent(ctx, prompts)
		if err != nil {
			lastErr = fmt.Errorf("llm generation failed: %w", err)
			continue
		}

		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("llm returned no choices")
			continue
		}

		content := resp.Choices[0].Content
		if err := validator(content); err != nil {
			lastErr = fmt.Errorf("validation failed: %w", err)
			continue
		}

		return content, nil
	}

	return "", fmt.Errorf("generation failed after %d attempts: %w", maxGenerateAttempts, lastErr)
}

// Engine drives the pipeline end to end: plan sub-questions for a topic,
// gather and index sources per question, then synthesize one report section
// per question that kept at least one source.
type Engine struct {
	Planner     *QuestionPlanner
	Retriever   *Retriever
	Synthesizer *Synthesizer
	Logger      *slog.Logger

	// OnStateUpdate, when set, receives a snapshot of the run state after
	// every change. Callers use it to persist or stream progress.
	OnStateUpdate func(state RunState)
}

// NewEngine wires a full pipeline from configuration: chat model, embedder,
// vector collection, search provider, fetcher and splitter.
func NewEngine(ctx context.Context, cfg *config.Config, db *database.PostgresDB) (*Engine, error) {
	llm, err := clients.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing chat model: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing embedder: %w", err)
	}

	if err := db.EnsureVectorExtension(ctx); err != nil {
		return nil, err
	}
	if err := db.CreateEmbeddingsTable(ctx, cfg.CollectionName, cfg.EmbeddingDim); err != nil {
		return nil, err
	}

	collection, err := vectorstore.NewCollection(db.Pool, cfg.CollectionName, embedder)
	if err != nil {
		return nil, fmt.Errorf("opening collection %q: %w", cfg.CollectionName, err)
	}

	provider, err := search.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing search provider: %w", err)
	}

	var fetcher fetch.Fetcher = fetch.NewHTTP(cfg.FetchTimeout)
	if cfg.MistralApiKey != "" {
		fetcher = &fetch.Router{
			HTML: fetcher,
			PDF:  fetch.NewOCR(cfg.MistralApiKey, 0),
		}
	}

	logger := slog.Default()

	return &Engine{
		Planner: &QuestionPlanner{
			LLM:          llm,
			MaxQuestions: cfg.MaxQuestions,
			Logger:       logger,
		},
		Retriever: &Retriever{
			Search:          provider,
			Fetcher:         fetcher,
			Splitter:        splitter.NewRecursiveCharacterTextSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
			Store:           collection,
			MaxSources:      cfg.MaxSourcesPerQuestion,
			MaxContentChars: cfg.MaxContentChars,
			Logger:          logger,
		},
		Synthesizer: &Synthesizer{
			LLM:        llm,
			Store:      collection,
			RetrievalK: cfg.RetrievalK,
			Logger:     logger,
		},
		Logger: logger,
	}, nil
}

// SetLogger points every pipeline stage at one logger. The server uses this
// to route a job's logs into the database.
func (e *Engine) SetLogger(logger *slog.Logger) {
	e.Logger = logger
	e.Planner.Logger = logger
	e.Retriever.Logger = logger
	e.Synthesizer.Logger = logger
}

func (e *Engine) publish(state *RunState) {
	if e.OnStateUpdate != nil {
		e.OnStateUpdate(*state)
	}
}

// Run executes the pipeline for one topic and assembles the report.
// Planning and synthesis failures abort the run; a failed search or an
// unusable set of sources only drops that one question, recorded on the
// run state. Questions that lose every source produce no section.
func (e *Engine) Run(ctx context.Context, topic string) (report.Report, error) {
	state := &RunState{Topic: topic}
	e.Logger.Info("Starting research run", "topic", topic)
	e.publish(state)

	questions, err := e.Planner.Plan(ctx, topic)
	if err != nil {
		return report.Report{}, fmt.Errorf("planning failed: %w", err)
	}

	for _, question := range questions {
		outcome, err := e.Retriever.Retrieve(ctx, question)
		if err != nil {
			return report.Report{}, fmt.Errorf("indexing failed: %w", err)
		}

		for _, skipped := range outcome.Skipped {
			e.Logger.Warn("Skipping source", "question", question, "link", skipped.Link, "error", skipped.Err)
		}

		if outcome.Dropped() {
			reason := outcome.DropReason()
			e.Logger.Warn("Dropping question", "question", question, "reason", reason)
			state.Dropped = append(state.Dropped, DroppedQuestion{Question: question, Reason: reason})
		} else {
			state.Entries = append(state.Entries, Entry{Question: question, Sources: outcome.Sources})
		}
		e.publish(state)
	}

	sections := make([]report.Section, 0, len(state.Entries))
	for _, entry := range state.Entries {
		section, err := e.Synthesizer.Synthesize(ctx, entry)
		if err != nil {
			return report.Report{}, fmt.Errorf("synthesis failed: %w", err)
		}
		sections = append(sections, section)
	}

	rep := report.Assemble(topic, sections)
	e.Logger.Info("Research run complete", "topic", topic, "sections", len(rep.Sections), "dropped", len(state.Dropped))
	return rep, nil
}
