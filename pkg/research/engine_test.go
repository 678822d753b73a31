package research

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dossier-ai/dossier/pkg/search"
	"github.com/dossier-ai/dossier/pkg/splitter"
)

func newTestEngine(planLLM, sectLLM *fakeLLM, srch *fakeSearch, fetcher *fakeFetcher, store *fakeStore) *Engine {
	return &Engine{
		Planner: &QuestionPlanner{LLM: planLLM, MaxQuestions: 5, Logger: testLogger},
		Retriever: &Retriever{
			Search:          srch,
			Fetcher:         fetcher,
			Splitter:        splitter.NewRecursiveCharacterTextSplitter(800, 100),
			Store:           store,
			MaxSources:      2,
			MaxContentChars: 5000,
			Logger:          testLogger,
		},
		Synthesizer: &Synthesizer{LLM: sectLLM, Store: store, RetrievalK: 3, Logger: testLogger},
		Logger:      testLogger,
	}
}

func TestRunProducesOrderedSections(t *testing.T) {
	planLLM := &fakeLLM{fallback: "1. What is grid storage?\n2. Why do costs fall?\n3. Who builds it?"}
	sectLLM := &fakeLLM{script: []scripted{
		{match: "Compile research findings for: 1.", text: "Grid storage section."},
		{match: "Compile research findings for: 2.", text: "Cost curve section."},
		{match: "Compile research findings for: 3.", text: "Builders section."},
	}}
	srch := &fakeSearch{results: map[string][]search.Result{
		"1. What is grid storage?": {{Title: "Storage 101", Link: "https://a.example/1"}},
		"2. Why do costs fall?":    {{Title: "Learning curves", Link: "https://a.example/2"}},
		"3. Who builds it?":        {{Title: "Vendors", Link: "https://a.example/3"}},
	}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://a.example/1": "Batteries buffer the grid.",
		"https://a.example/2": "Production scale lowers cost.",
		"https://a.example/3": "Several vendors compete.",
	}}
	store := &fakeStore{}

	eng := newTestEngine(planLLM, sectLLM, srch, fetcher, store)
	var states []RunState
	eng.OnStateUpdate = func(s RunState) { states = append(states, s) }

	rep, err := eng.Run(context.Background(), "grid-scale batteries")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if rep.Topic != "grid-scale batteries" {
		t.Errorf("Topic = %q", rep.Topic)
	}
	if len(rep.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(rep.Sections))
	}
	wantTitles := []string{"1. What is grid storage?", "2. Why do costs fall?", "3. Who builds it?"}
	wantContents := []string{"Grid storage section.", "Cost curve section.", "Builders section."}
	for i, section := range rep.Sections {
		if section.Title != wantTitles[i] {
			t.Errorf("section %d title = %q, want %q", i, section.Title, wantTitles[i])
		}
		if section.Content != wantContents[i] {
			t.Errorf("section %d content = %q, want %q", i, section.Content, wantContents[i])
		}
		if len(section.Sources) == 0 {
			t.Errorf("section %d has no sources", i)
		}
	}

	if len(store.upserted) != 3 {
		t.Errorf("expected 3 indexed chunks, got %d", len(store.upserted))
	}

	if len(states) == 0 {
		t.Fatal("expected state updates")
	}
	first, last := states[0], states[len(states)-1]
	if first.Topic != "grid-scale batteries" || len(first.Entries) != 0 {
		t.Errorf("first snapshot = %+v", first)
	}
	if len(last.Entries) != 3 || len(last.Dropped) != 0 {
		t.Errorf("last snapshot has %d entries and %d dropped", len(last.Entries), len(last.Dropped))
	}
}

func TestRunDropsFailedQuestionAndContinues(t *testing.T) {
	planLLM := &fakeLLM{fallback: "1. First?\n2. Second?\n3. Third?"}
	sectLLM := &fakeLLM{script: []scripted{
		{match: "1. First?", text: "First section."},
		{match: "3. Third?", text: "Third section."},
	}}
	srch := &fakeSearch{
		results: map[string][]search.Result{
			"1. First?": {{Title: "One", Link: "https://a.example/1"}},
			"3. Third?": {{Title: "Three", Link: "https://a.example/3"}},
		},
		errFor: map[string]error{"2. Second?": errors.New("serper returned status 500")},
	}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://a.example/1": "Text for the first question.",
		"https://a.example/3": "Text for the third question.",
	}}
	store := &fakeStore{}

	eng := newTestEngine(planLLM, sectLLM, srch, fetcher, store)
	var states []RunState
	eng.OnStateUpdate = func(s RunState) { states = append(states, s) }

	rep, err := eng.Run(context.Background(), "resilience to search outages")
	if err != nil {
		t.Fatalf("one failed search must not abort the run, got: %v", err)
	}

	if len(rep.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(rep.Sections))
	}
	if rep.Sections[0].Title != "1. First?" || rep.Sections[1].Title != "3. Third?" {
		t.Errorf("section titles = %q, %q", rep.Sections[0].Title, rep.Sections[1].Title)
	}

	last := states[len(states)-1]
	if len(last.Entries) != 2 {
		t.Errorf("expected 2 surviving entries, got %d", len(last.Entries))
	}
	if len(last.Dropped) != 1 {
		t.Fatalf("expected 1 dropped question, got %d", len(last.Dropped))
	}
	dropped := last.Dropped[0]
	if dropped.Question != "2. Second?" {
		t.Errorf("dropped question = %q", dropped.Question)
	}
	if !strings.Contains(dropped.Reason, "serper returned status 500") {
		t.Errorf("drop reason = %q does not carry the cause", dropped.Reason)
	}

	for _, prompt := range sectLLM.prompts {
		if strings.Contains(prompt, "2. Second?") {
			t.Error("dropped question must not reach synthesis")
		}
	}
}

func TestRunWithEveryQuestionDropped(t *testing.T) {
	planLLM := &fakeLLM{fallback: "1. Only question?"}
	sectLLM := &fakeLLM{fallback: "should never be called"}
	srch := &fakeSearch{results: map[string][]search.Result{
		"1. Only question?": {{Title: "Down", Link: "https://a.example/down"}},
	}}
	fetcher := &fakeFetcher{errs: map[string]error{"https://a.example/down": errors.New("timeout")}}
	store := &fakeStore{}

	eng := newTestEngine(planLLM, sectLLM, srch, fetcher, store)
	var states []RunState
	eng.OnStateUpdate = func(s RunState) { states = append(states, s) }

	rep, err := eng.Run(context.Background(), "a topic with no reachable sources")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(rep.Sections) != 0 {
		t.Errorf("expected an empty report, got %d sections", len(rep.Sections))
	}
	last := states[len(states)-1]
	if len(last.Dropped) != 1 {
		t.Errorf("expected 1 dropped question, got %d", len(last.Dropped))
	}
	if len(sectLLM.prompts) != 0 {
		t.Errorf("synthesis ran %d times for a report with no entries", len(sectLLM.prompts))
	}
	if len(store.upserted) != 0 {
		t.Errorf("nothing should have been indexed, got %d chunks", len(store.upserted))
	}
}

func TestRunFailsWhenPlanningFails(t *testing.T) {
	shrinkRetryDelay(t)

	planLLM := &fakeLLM{errCount: 3, err: errors.New("model offline")}
	srch := &fakeSearch{}
	eng := newTestEngine(planLLM, &fakeLLM{}, srch, &fakeFetcher{}, &fakeStore{})

	_, err := eng.Run(context.Background(), "unplannable topic")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "planning failed") {
		t.Errorf("error = %q", err)
	}
	if len(srch.calls) != 0 {
		t.Errorf("search ran despite a failed plan: %v", srch.calls)
	}
}

func TestRunFailsWhenIndexingFails(t *testing.T) {
	planLLM := &fakeLLM{fallback: "1. Q?"}
	sectLLM := &fakeLLM{fallback: "should never be called"}
	srch := &fakeSearch{results: map[string][]search.Result{
		"1. Q?": {{Title: "Fine", Link: "https://a.example/fine"}},
	}}
	fetcher := &fakeFetcher{pages: map[string]string{"https://a.example/fine": "Some text."}}
	store := &fakeStore{upsertErr: errors.New("db down")}

	eng := newTestEngine(planLLM, sectLLM, srch, fetcher, store)

	_, err := eng.Run(context.Background(), "a topic")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "indexing failed") {
		t.Errorf("error = %q", err)
	}
	if len(sectLLM.prompts) != 0 {
		t.Error("synthesis ran despite a failed index write")
	}
}

func TestRunFailsWhenSynthesisFails(t *testing.T) {
	shrinkRetryDelay(t)

	planLLM := &fakeLLM{fallback: "1. Q?"}
	sectLLM := &fakeLLM{errCount: 3, err: errors.New("model offline")}
	srch := &fakeSearch{results: map[string][]search.Result{
		"1. Q?": {{Title: "Fine", Link: "https://a.example/fine"}},
	}}
	fetcher := &fakeFetcher{pages: map[string]string{"https://a.example/fine": "Some text."}}

	eng := newTestEngine(planLLM, sectLLM, srch, fetcher, &fakeStore{})

	_, err := eng.Run(context.Background(), "a topic")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "synthesis failed") {
		t.Errorf("error = %q", err)
	}
}
