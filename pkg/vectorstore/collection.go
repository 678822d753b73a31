package vectorstore

import (
	"context"
	"fmt"

	"github.com/dossier-ai/dossier/pkg/embeddings"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Collection binds one vector table to the embedder that fills it. All
// pipeline indexing and retrieval goes through a Collection so documents and
// queries always share an embedding space.
type Collection struct {
	store    *PGVectorStore
	embedder embeddings.Embedder
	name     string
}

func NewCollection(pool *pgxpool.Pool, name string, embedder embeddings.Embedder) (*Collection, error) {
	store, err := NewPGVectorStore(pool, name)
	if err != nil {
		return nil, err
	}
	return &Collection{store: store, embedder: embedder, name: name}, nil
}

func (c *Collection) Name() string { return c.name }

// Upsert embeds the documents' content and appends them to the collection.
func (c *Collection) Upsert(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}

	vectors, err := c.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	for i := range docs {
		docs[i].Embedding = vectors[i]
	}

	return c.store.AddDocuments(ctx, docs)
}

// Query embeds text and returns the k most similar documents, most similar
// first.
func (c *Collection) Query(ctx context.Context, text string, k int) ([]Document, error) {
	return c.query(ctx, text, k, "")
}

// QuerySource is Query restricted to chunks from one source link.
func (c *Collection) QuerySource(ctx context.Context, text string, k int, link string) ([]Document, error) {
	return c.query(ctx, text, k, link)
}

func (c *Collection) query(ctx context.Context, text string, k int, link string) ([]Document, error) {
	vector, err := c.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := c.store.SimilaritySearch(ctx, vector, k, link)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(results))
	for _, r := range results {
		docs = append(docs, r.Document)
	}
	return docs, nil
}

// SourceContent returns every chunk indexed for one source link.
func (c *Collection) SourceContent(ctx context.Context, link string) ([]Document, error) {
	return c.store.GetContentByLink(ctx, link)
}

// Sources lists the distinct sources in the collection.
func (c *Collection) Sources(ctx context.Context) ([]SourceInfo, error) {
	return c.store.ListSources(ctx)
}

// Filter returns documents matching a metadata filter ($and/$or/$not plus
// per-field equality matches).
func (c *Collection) Filter(ctx context.Context, filter map[string]interface{}) ([]Document, error) {
	return c.store.GetContentByMetadata(ctx, filter)
}
