package research

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dossier-ai/dossier/pkg/vectorstore"
)

func TestSynthesizeBuildsSectionFromRetrievedContext(t *testing.T) {
	question := "1. How do tidal turbines work?"
	store := &fakeStore{queryDocs: map[string][]vectorstore.Document{
		question: {
			{Content: "Source: A\nContent: first chunk"},
			{Content: "Source: B\nContent: second chunk"},
			{Content: "Source: C\nContent: third chunk"},
		},
	}}
	llm := &fakeLLM{fallback: "Tidal turbines extract energy from moving water."}
	s := &Synthesizer{LLM: llm, Store: store, RetrievalK: 3, Logger: testLogger}

	entry := Entry{
		Question: question,
		Sources: []SourceDocument{
			{Title: "A", Link: "https://a.example"},
			{Title: "B", Link: "https://b.example"},
		},
	}

	section, err := s.Synthesize(context.Background(), entry)
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}

	if section.Title != question {
		t.Errorf("Title = %q, want %q", section.Title, question)
	}
	if section.Content != "Tidal turbines extract energy from moving water." {
		t.Errorf("Content = %q", section.Content)
	}
	if len(section.Sources) != 2 || section.Sources[0].Link != "https://a.example" || section.Sources[1].Link != "https://b.example" {
		t.Errorf("Sources = %v", section.Sources)
	}

	if store.lastK != 3 {
		t.Errorf("retrieval k = %d, want 3", store.lastK)
	}
	if len(store.queries) != 1 || store.queries[0] != question {
		t.Errorf("queries = %v", store.queries)
	}

	if len(llm.prompts) != 1 {
		t.Fatalf("expected 1 LLM call, got %d", len(llm.prompts))
	}
	prompt := llm.prompts[0]
	if !strings.Contains(prompt, "Compile research findings for: "+question) {
		t.Errorf("prompt missing the question: %q", prompt)
	}
	wantContext := "Source: A\nContent: first chunk\n\n---\n\nSource: B\nContent: second chunk\n\n---\n\nSource: C\nContent: third chunk"
	if !strings.Contains(prompt, wantContext) {
		t.Errorf("prompt does not join contexts verbatim: %q", prompt)
	}
}

func TestSynthesizeWithEmptyContext(t *testing.T) {
	llm := &fakeLLM{fallback: "Nothing was indexed for this question."}
	s := &Synthesizer{LLM: llm, Store: &fakeStore{}, RetrievalK: 3, Logger: testLogger}

	section, err := s.Synthesize(context.Background(), Entry{Question: "2. Unindexed question?"})
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if section.Content == "" {
		t.Error("expected section content even with an empty context")
	}
}

func TestSynthesizeFailsWhenRetrievalFails(t *testing.T) {
	store := &fakeStore{queryErr: errors.New("vector index gone")}
	s := &Synthesizer{LLM: &fakeLLM{fallback: "unused"}, Store: store, RetrievalK: 3, Logger: testLogger}

	_, err := s.Synthesize(context.Background(), Entry{Question: "3. Broken store?"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "retrieving context") {
		t.Errorf("error = %q", err)
	}
}

func TestSynthesizeFailsWhenModelKeepsErroring(t *testing.T) {
	shrinkRetryDelay(t)

	llm := &fakeLLM{errCount: 3, err: errors.New("model offline")}
	s := &Synthesizer{LLM: llm, Store: &fakeStore{}, RetrievalK: 3, Logger: testLogger}

	_, err := s.Synthesize(context.Background(), Entry{Question: "4. Doomed question?"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "synthesizing section") {
		t.Errorf("error = %q", err)
	}
}
