package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"chatlens/internal/llm"
	"chatlens/internal/vectorstore"
)

func TestCitationManagerSortsByScoreDescending(t *testing.T) {
	m := NewCitationManager()
	m.AddFromResult(vectorstore.SearchResult{ChunkID: "a", CombinedScore: 0.3, Text: "low"}, "alice", 0)
	m.AddFromResult(vectorstore.SearchResult{ChunkID: "b", CombinedScore: 0.9, Text: "high"}, "alice", 0)
	m.AddFromResult(vectorstore.SearchResult{ChunkID: "c", CombinedScore: 0.6, Text: "mid"}, "alice", 0)

	got := m.Citations()
	if len(got) != 3 {
		t.Fatalf("expected 3 citations, got %d", len(got))
	}
	if got[0].ChunkID != "b" || got[1].ChunkID != "c" || got[2].ChunkID != "a" {
		t.Fatalf("expected descending score order b,c,a, got %v", got)
	}
}

func TestCitationManagerTruncatesSnippet(t *testing.T) {
	m := NewCitationManager()
	longText := ""
	for i := 0; i < 50; i++ {
		longText += "0123456789"
	}
	c := m.AddFromResult(vectorstore.SearchResult{ChunkID: "a", CombinedScore: 1, Text: longText}, "alice", 20)
	if len(c.TextSnippet) != 23 { // 20 + "..."
		t.Fatalf("expected truncated snippet of length 23, got %d", len(c.TextSnippet))
	}
}

func TestCitationManagerClearResetsState(t *testing.T) {
	m := NewCitationManager()
	m.AddFromResult(vectorstore.SearchResult{ChunkID: "a", CombinedScore: 1, Text: "x"}, "alice", 0)
	m.Clear()
	if len(m.Citations()) != 0 {
		t.Fatalf("expected no citations after Clear, got %d", len(m.Citations()))
	}
}

func TestCitationManagerUniqueMessageIDs(t *testing.T) {
	m := NewCitationManager()
	m.AddFromResult(vectorstore.SearchResult{ChunkID: "a", MessageIDs: []string{"m1", "m2"}, Text: "x"}, "alice", 0)
	m.AddFromResult(vectorstore.SearchResult{ChunkID: "b", MessageIDs: []string{"m2", "m3"}, Text: "y"}, "alice", 0)
	ids := m.UniqueMessageIDs()
	if len(ids) != 3 {
		t.Fatalf("expected 3 unique message ids, got %d: %v", len(ids), ids)
	}
}

func TestCitationResolverRejectsUnretrievedChunk(t *testing.T) {
	resolver := NewCitationResolver([]Citation{{ChunkID: "a"}, {ChunkID: "b"}})
	if !resolver.Resolves("a") {
		t.Fatalf("expected chunk a to resolve")
	}
	invalid := resolver.ValidateReferences([]string{"a", "c"})
	if len(invalid) != 1 || invalid[0] != "c" {
		t.Fatalf("expected only 'c' flagged as invalid, got %v", invalid)
	}
}

type stubEmbedder struct{ vec map[vectorstore.Space][]float32 }

func (s stubEmbedder) EmbedQuery(ctx context.Context, text string) (map[vectorstore.Space][]float32, error) {
	return s.vec, nil
}

type stubModelClient struct {
	response string
	err      error
}

func (s stubModelClient) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	if s.err != nil {
		return llm.ChatResponse{}, s.err
	}
	var resp llm.ChatResponse
	resp.Message.Content = s.response
	return resp, nil
}

func TestBuildAnswerPromptIncludesQuestionAndContext(t *testing.T) {
	citations := []Citation{{ChunkID: "a", TextSnippet: "we talked about trust"}}
	prompt := buildAnswerPrompt("did we discuss trust?", citations)
	if !strings.Contains(prompt, "did we discuss trust?") {
		t.Fatalf("expected prompt to include the question, got: %s", prompt)
	}
	if !strings.Contains(prompt, "we talked about trust") {
		t.Fatalf("expected prompt to include the citation snippet, got: %s", prompt)
	}
}

func TestBuildAnswerPromptNoContextFallback(t *testing.T) {
	prompt := buildAnswerPrompt("anything?", nil)
	if !strings.Contains(prompt, "No relevant context found.") {
		t.Fatalf("expected no-context fallback text, got: %s", prompt)
	}
}

func TestEngineGenerateReturnsModelError(t *testing.T) {
	e := &Engine{client: stubModelClient{err: errors.New("boom")}, config: DefaultQueryConfig()}
	_, err := e.generate(context.Background(), "q", nil)
	if err == nil {
		t.Fatalf("expected error to propagate from model client")
	}
}
