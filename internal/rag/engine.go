package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chatlens/internal/domain"
	"chatlens/internal/llm"
	"chatlens/internal/vectorstore"
)

// QueryConfig configures one RAG query, per spec.md §4.4's retrieval
// parameters plus the original's QueryConfig dataclass.
type QueryConfig struct {
	K                  int
	MinScoreThreshold  float64
	MaxContextChunks   int
	Model              string
	Temperature        float64
	SnippetLength      int
	FusionWeights      map[vectorstore.Space]float64
	RequireTier        domain.PrivacyTier
}

// DefaultQueryConfig returns the bundled defaults, grounded on
// rag_engine.py's QueryConfig dataclass defaults.
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		K:                 10,
		MinScoreThreshold: 0.1,
		MaxContextChunks:  5,
		Temperature:       0.3,
		SnippetLength:     defaultSnippetLength,
		FusionWeights:     vectorstore.DefaultFusionWeights(),
	}
}

// Answer is the response to one RAG query: the generated text, the
// citations it is grounded on, and retrieval/generation statistics.
// Grounded on rag_engine.py's QueryResponse dataclass.
type Answer struct {
	Text             string
	Citations        []Citation
	Query            string
	Contact          string
	RetrievedChunks  int
	MinScore         float64
	MaxScore         float64
	ProcessingTime   time.Duration
}

// Embedder computes a query embedding per vector space. The pipeline wires
// this to the same embedding models the indexer used when writing each
// space, so query and stored vectors are comparable.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) (map[vectorstore.Space][]float32, error)
}

// Engine answers questions against a contact's indexed chunks using
// weighted multi-space retrieval and a grounded-answer prompt. Grounded on
// rag_engine.py's RAGEngine, restructured around this port's
// vectorstore.Store and llm.ModelClient interfaces instead of ChromaDB and
// a direct Ollama HTTP client.
type Engine struct {
	store    *vectorstore.Store
	embedder Embedder
	client   llm.ModelClient
	config   QueryConfig
}

// NewEngine builds an Engine over an existing vector store, embedder, and
// model client.
func NewEngine(store *vectorstore.Store, embedder Embedder, client llm.ModelClient, config QueryConfig) *Engine {
	if config.K <= 0 {
		config = DefaultQueryConfig()
	}
	return &Engine{store: store, embedder: embedder, client: client, config: config}
}

// Answer retrieves relevant chunks for a contact, builds citations, and
// generates a grounded answer. Mirrors rag_engine.py's query() three-step
// shape: retrieve, cite, generate.
func (e *Engine) Answer(ctx context.Context, contact, question string) (Answer, error) {
	start := time.Now()

	embeddings, err := e.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return Answer{}, fmt.Errorf("embed query: %w", err)
	}

	results, err := e.store.Search(ctx, contact, embeddings, e.config.K, e.config.FusionWeights, e.config.RequireTier)
	if err != nil {
		return Answer{}, fmt.Errorf("search: %w", err)
	}

	var filtered []vectorstore.SearchResult
	for _, r := range results {
		if r.CombinedScore >= e.config.MinScoreThreshold {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) > e.config.MaxContextChunks {
		filtered = filtered[:e.config.MaxContextChunks]
	}

	if len(filtered) == 0 {
		return Answer{
			Text:           "I couldn't find any relevant information to answer your question.",
			Query:          question,
			Contact:        contact,
			ProcessingTime: time.Since(start),
		}, nil
	}

	manager := NewCitationManager()
	for _, r := range filtered {
		manager.AddFromResult(r, contact, e.config.SnippetLength)
	}
	citations := manager.Citations()

	text, err := e.generate(ctx, question, citations)
	if err != nil {
		return Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	minScore, maxScore := filtered[0].CombinedScore, filtered[0].CombinedScore
	for _, r := range filtered {
		if r.CombinedScore < minScore {
			minScore = r.CombinedScore
		}
		if r.CombinedScore > maxScore {
			maxScore = r.CombinedScore
		}
	}

	return Answer{
		Text:            text,
		Citations:       citations,
		Query:           question,
		Contact:         contact,
		RetrievedChunks: len(filtered),
		MinScore:        minScore,
		MaxScore:        maxScore,
		ProcessingTime:  time.Since(start),
	}, nil
}

func (e *Engine) generate(ctx context.Context, question string, citations []Citation) (string, error) {
	prompt := buildAnswerPrompt(question, citations)
	resp, err := e.client.Chat(ctx, llm.ChatRequest{
		Model: e.config.Model,
		Messages: []llm.ChatMessage{
			{Role: "user", Content: prompt},
		},
		Options: llm.ChatOptions{Temperature: e.config.Temperature},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Message.Content), nil
}

// buildAnswerPrompt assembles the grounded-answer prompt using the same
// section-marker style the enrichment passes use (see
// internal/enrichment's prompt builders), grounded on rag_engine.py's
// _create_qa_prompt.
func buildAnswerPrompt(question string, citations []Citation) string {
	var sb strings.Builder
	sb.WriteString("=== ROLE ===\n")
	sb.WriteString("You are a helpful assistant that answers questions based on conversation history.\n")
	sb.WriteString("Use only the provided context to answer the question. If the context doesn't contain\n")
	sb.WriteString("relevant information, say so.\n\n")
	sb.WriteString("=== CONTEXT ===\n")
	sb.WriteString(formatForPrompt(citations))
	sb.WriteString("\n=== QUESTION ===\n")
	sb.WriteString(question)
	sb.WriteString("\n\n=== INSTRUCTIONS ===\n")
	sb.WriteString("- Answer based only on the provided context\n")
	sb.WriteString("- Be concise and specific\n")
	sb.WriteString(`- If the context doesn't contain enough information, say "I don't have enough information to answer this question"` + "\n")
	sb.WriteString("- Reference specific details from the context when possible\n")
	sb.WriteString("- Do not make assumptions beyond what's explicitly stated in the context\n\n")
	sb.WriteString("=== ANSWER ===\n")
	return sb.String()
}
