package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"github.com/dossier-ai/dossier/pkg/vectorstore"
)

// CorpusToolset exposes the indexed research corpus to the chat agent:
// semantic search, per-source lookup, a source listing and metadata filters.
type CorpusToolset struct {
	Collection *vectorstore.Collection
}

func NewCorpusToolset(collection *vectorstore.Collection) *CorpusToolset {
	return &CorpusToolset{Collection: collection}
}

func (t *CorpusToolset) Name() string {
	return "corpus_tools"
}

func (t *CorpusToolset) Tools(ctx agent.ReadonlyContext) ([]tool.Tool, error) {
	searchTool, err := functiontool.New[SearchContextArgs, SearchContextResp](
		functiontool.Config{
			Name:        "search_context",
			Description: "Search the indexed research sources using semantic search.",
		},
		t.searchContextTool,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create search_context tool: %w", err)
	}

	sourceTool, err := functiontool.New[SourceContentArgs, SourceContentResp](
		functiontool.Config{
			Name:        "find_source_content",
			Description: "Return every indexed chunk for a specific source link.",
		},
		t.sourceContentTool,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create find_source_content tool: %w", err)
	}

	listTool, err := functiontool.New[ListSourcesArgs, ListSourcesResp](
		functiontool.Config{
			Name:        "list_sources",
			Description: "List the distinct sources currently indexed.",
		},
		t.listSourcesTool,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create list_sources tool: %w", err)
	}

	filterTool, err := functiontool.New[FilterContentArgs, FilterContentResp](
		functiontool.Config{
			Name:        "filter_content",
			Description: "Find content using logical metadata filters ($and, $or, $not).",
		},
		t.filterContentTool,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create filter_content tool: %w", err)
	}

	return []tool.Tool{searchTool, sourceTool, listTool, filterTool}, nil
}

// --- Tool Implementations ---

type SearchContextArgs struct {
	Query  string `json:"query" description:"The search query"`
	TopK   int    `json:"topK,omitempty" description:"Number of results to return (default 5)"`
	Source string `json:"source,omitempty" description:"Optional source link to restrict the search to"`
}

type SearchContextResp struct {
	Results string `json:"results"`
}

// Wrapper for ADK tool interface
func (t *CorpusToolset) searchContextTool(ctx tool.Context, args SearchContextArgs) (SearchContextResp, error) {
	return t.SearchContext(ctx, args)
}

// Public method using standard context
func (t *CorpusToolset) SearchContext(ctx context.Context, args SearchContextArgs) (SearchContextResp, error) {
	if args.TopK == 0 {
		args.TopK = 5
	}

	slog.Info("Search context", "query", args.Query, "topK", args.TopK, "source", args.Source)

	var docs []vectorstore.Document
	var err error
	if args.Source != "" {
		docs, err = t.Collection.QuerySource(ctx, args.Query, args.TopK, args.Source)
	} else {
		docs, err = t.Collection.Query(ctx, args.Query, args.TopK)
	}
	if err != nil {
		return SearchContextResp{}, fmt.Errorf("failed to search: %w", err)
	}

	return SearchContextResp{Results: formatDocuments(docs)}, nil
}

type SourceContentArgs struct {
	Source string `json:"source" description:"The source link to fetch content for"`
}

type SourceContentResp struct {
	Content string `json:"content"`
}

// Wrapper for ADK tool interface
func (t *CorpusToolset) sourceContentTool(ctx tool.Context, args SourceContentArgs) (SourceContentResp, error) {
	return t.SourceContent(ctx, args)
}

// Public method using standard context
func (t *CorpusToolset) SourceContent(ctx context.Context, args SourceContentArgs) (SourceContentResp, error) {
	docs, err := t.Collection.SourceContent(ctx, args.Source)
	if err != nil {
		return SourceContentResp{}, fmt.Errorf("failed to find content: %w", err)
	}

	contents := make([]string, 0, len(docs))
	for _, doc := range docs {
		contents = append(contents, doc.Content)
	}

	return SourceContentResp{Content: strings.Join(contents, "\n\n")}, nil
}

type ListSourcesArgs struct{}

type ListSourcesResp struct {
	Sources string `json:"sources"`
}

// Wrapper for ADK tool interface
func (t *CorpusToolset) listSourcesTool(ctx tool.Context, args ListSourcesArgs) (ListSourcesResp, error) {
	return t.ListSources(ctx, args)
}

// Public method using standard context
func (t *CorpusToolset) ListSources(ctx context.Context, args ListSourcesArgs) (ListSourcesResp, error) {
	sources, err := t.Collection.Sources(ctx)
	if err != nil {
		return ListSourcesResp{}, fmt.Errorf("failed to list sources: %w", err)
	}

	lines := make([]string, 0, len(sources))
	for _, src := range sources {
		title := src.Title
		if title == "" {
			title = "untitled"
		}
		lines = append(lines, fmt.Sprintf("- %s (%s)", title, src.Link))
	}

	return ListSourcesResp{Sources: strings.Join(lines, "\n")}, nil
}

type FilterContentArgs struct {
	Filter map[string]interface{} `json:"filter" description:"JSON filter object with logical operators ($and, $or, $not)"`
}

type FilterContentResp struct {
	Content string `json:"content"`
}

// Wrapper for ADK tool interface
func (t *CorpusToolset) filterContentTool(ctx tool.Context, args FilterContentArgs) (FilterContentResp, error) {
	return t.FilterContent(ctx, args)
}

// Public method using standard context
func (t *CorpusToolset) FilterContent(ctx context.Context, args FilterContentArgs) (FilterContentResp, error) {
	docs, err := t.Collection.Filter(ctx, args.Filter)
	if err != nil {
		return FilterContentResp{}, fmt.Errorf("failed to filter content: %w", err)
	}

	return FilterContentResp{Content: formatDocuments(docs)}, nil
}

func formatDocuments(docs []vectorstore.Document) string {
	formatted := make([]string, 0, len(docs))
	for _, doc := range docs {
		link := "unknown"
		if l, ok := doc.Metadata["link"].(string); ok {
			link = l
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("[Source]: %s\n[Content]: %s", link, doc.Content))
		for k, v := range doc.Metadata {
			if k == "link" {
				continue
			}
			sb.WriteString(fmt.Sprintf("\n[%s]: %v", k, v))
		}

		formatted = append(formatted, sb.String())
	}
	return strings.Join(formatted, "\n\n")
}
