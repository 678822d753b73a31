package splitter

import (
	"testing"
	"unicode/utf8"
)

// rawText builds a separator-free string so the splitter has to fall back to
// fixed character windows.
func rawText(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('a' + i%23)
	}
	return string(b)
}

func TestSplitTextRawWindows(t *testing.T) {
	text := rawText(5000)
	ts := NewRecursiveCharacterTextSplitter(800, 100)

	chunks, err := ts.SplitText(text)
	if err != nil {
		t.Fatalf("SplitText returned error: %v", err)
	}

	// stride = size - overlap = 700, so 5000 chars yield 7 windows
	if len(chunks) != 7 {
		t.Fatalf("expected 7 chunks, got %d", len(chunks))
	}

	for i, chunk := range chunks {
		start := i * 700
		want := text[start : start+800]
		if chunk != want {
			t.Errorf("chunk %d is not the window starting at %d", i, start)
		}
	}

	// consecutive chunks share exactly the overlap
	for i := 0; i < len(chunks)-1; i++ {
		tail := chunks[i][len(chunks[i])-100:]
		head := chunks[i+1][:100]
		if tail != head {
			t.Errorf("chunks %d and %d do not overlap by 100 chars", i, i+1)
		}
	}
}

func TestSplitTextChunkSizeBound(t *testing.T) {
	ts := NewRecursiveCharacterTextSplitter(800, 100)
	text := "First paragraph about the topic.\n\n" + rawText(2500) + "\n\nClosing paragraph with a summary of findings."

	chunks, err := ts.SplitText(text)
	if err != nil {
		t.Fatalf("SplitText returned error: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for i, chunk := range chunks {
		if n := utf8.RuneCountInString(chunk); n > 800 {
			t.Errorf("chunk %d has %d chars, want <= 800", i, n)
		}
		if chunk == "" {
			t.Errorf("chunk %d is empty", i)
		}
	}
}

func TestSplitTextDeterministic(t *testing.T) {
	ts := NewRecursiveCharacterTextSplitter(800, 100)
	text := rawText(3000) + "\n\n" + rawText(1200)

	first, err := ts.SplitText(text)
	if err != nil {
		t.Fatalf("SplitText returned error: %v", err)
	}
	second, err := ts.SplitText(text)
	if err != nil {
		t.Fatalf("SplitText returned error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestSplitTextShortInput(t *testing.T) {
	ts := NewRecursiveCharacterTextSplitter(800, 100)

	chunks, err := ts.SplitText("a short note")
	if err != nil {
		t.Fatalf("SplitText returned error: %v", err)
	}
	if len(chunks) != 1 || chunks[0] != "a short note" {
		t.Errorf("expected the input back as one chunk, got %q", chunks)
	}
}

func TestSplitTextEmptyInput(t *testing.T) {
	ts := NewRecursiveCharacterTextSplitter(800, 100)

	for _, text := range []string{"", "   ", "\n\n\n"} {
		chunks, err := ts.SplitText(text)
		if err != nil {
			t.Fatalf("SplitText(%q) returned error: %v", text, err)
		}
		if len(chunks) != 0 {
			t.Errorf("SplitText(%q) = %q, want no chunks", text, chunks)
		}
	}
}

func TestNewSplitterDefaults(t *testing.T) {
	ts := NewRecursiveCharacterTextSplitter(0, -1)

	chunks, err := ts.SplitText(rawText(1000))
	if err != nil {
		t.Fatalf("SplitText returned error: %v", err)
	}
	// defaults are 800/100, so 1000 raw chars split into two windows
	if len(chunks) != 2 {
		t.Errorf("expected 2 chunks with default sizing, got %d", len(chunks))
	}
}
