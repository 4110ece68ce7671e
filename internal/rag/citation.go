// Package rag implements the retrieval-augmented query engine: weighted
// multi-space retrieval via internal/vectorstore, citation management, and
// grounded-answer generation via the shared llm.ModelClient contract.
// Grounded on original_source/src/chatx/query/{rag_engine,citation_manager}.py.
package rag

import (
	"sort"
	"strconv"

	"chatlens/internal/vectorstore"
)

const defaultSnippetLength = 300

// Citation is one retrieved chunk attributed in an answer, per spec.md §1
// "serves retrieval-augmented queries with citations". Grounded on
// citation_manager.py's Citation dataclass.
type Citation struct {
	ChunkID      string
	MessageIDs   []string
	Score        float64
	TextSnippet  string
	Contact      string
}

// CitationManager accumulates citations for one query and exposes them
// sorted by relevance, plus prompt-ready formatting. Grounded on
// citation_manager.py's CitationManager.
type CitationManager struct {
	citations []Citation
}

// NewCitationManager returns an empty manager.
func NewCitationManager() *CitationManager {
	return &CitationManager{}
}

// AddFromResult builds and stores a citation from a fused search result,
// truncating its text to maxSnippetLength (0 uses the package default).
func (m *CitationManager) AddFromResult(result vectorstore.SearchResult, contact string, maxSnippetLength int) Citation {
	if maxSnippetLength <= 0 {
		maxSnippetLength = defaultSnippetLength
	}
	snippet := result.Text
	if len(snippet) > maxSnippetLength {
		snippet = snippet[:maxSnippetLength] + "..."
	}
	c := Citation{
		ChunkID:     result.ChunkID,
		MessageIDs:  result.MessageIDs,
		Score:       result.CombinedScore,
		TextSnippet: snippet,
		Contact:     contact,
	}
	m.citations = append(m.citations, c)
	return c
}

// Citations returns every stored citation, sorted by relevance descending.
func (m *CitationManager) Citations() []Citation {
	out := append([]Citation{}, m.citations...)
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// TopCitations returns at most n citations by relevance descending.
func (m *CitationManager) TopCitations(n int) []Citation {
	all := m.Citations()
	if n > 0 && len(all) > n {
		all = all[:n]
	}
	return all
}

// UniqueMessageIDs returns the deduplicated union of message ids across
// every stored citation.
func (m *CitationManager) UniqueMessageIDs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range m.citations {
		for _, id := range c.MessageIDs {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// Clear discards every stored citation, readying the manager for reuse
// across queries (rag_engine.py calls citation_manager.clear() per query).
func (m *CitationManager) Clear() {
	m.citations = nil
}

// CitationResolver validates that every citation an answer references
// actually resolves to a chunk that was retrieved — the "citations must
// validate against retrieved chunks, not invented ones" invariant implied
// by spec.md §1's "serves ... queries with citations".
type CitationResolver struct {
	retrievedChunkIDs map[string]bool
}

// NewCitationResolver builds a resolver scoped to one query's retrieved set.
func NewCitationResolver(citations []Citation) *CitationResolver {
	ids := make(map[string]bool, len(citations))
	for _, c := range citations {
		ids[c.ChunkID] = true
	}
	return &CitationResolver{retrievedChunkIDs: ids}
}

// Resolves reports whether chunkID was actually retrieved for this query.
func (r *CitationResolver) Resolves(chunkID string) bool {
	return r.retrievedChunkIDs[chunkID]
}

// ValidateReferences reports every referenced chunk id that did not
// resolve to a retrieved chunk — a fabricated citation.
func (r *CitationResolver) ValidateReferences(referencedChunkIDs []string) []string {
	var invalid []string
	for _, id := range referencedChunkIDs {
		if !r.Resolves(id) {
			invalid = append(invalid, id)
		}
	}
	return invalid
}

// formatForPrompt renders citations as the ordered "[Context N] ..." block
// the answer prompt is grounded on, per citation_manager.py's
// format_citations_for_prompt.
func formatForPrompt(citations []Citation) string {
	if len(citations) == 0 {
		return "No relevant context found."
	}
	out := ""
	for i, c := range citations {
		out += "[Context " + strconv.Itoa(i+1) + "]:\n" + c.TextSnippet + "\n\n"
	}
	return out
}
