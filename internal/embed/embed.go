// Package embed produces the feature vectors the multi-vector indexer and
// RAG query engine need. No example repo in the retrieval pack (nor the
// teacher) imports an embedding/ML library — there is no sentence-
// transformers, ONNX runtime, or ggml binding anywhere in the corpus's
// dependency surface — so this is a deterministic, dependency-free
// feature-hashing embedder (the "hashing trick": FNV-64a over
// whitespace-tokenized text and labels, bucketed signed-mod-dimension,
// L2-normalized) built entirely on the standard library. See DESIGN.md for
// why no third-party embedding library could serve this concern.
package embed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"chatlens/internal/vectorstore"
)

// Embedder builds per-space feature-hashed vectors at each vector space's
// configured dimension (vectorstore.DefaultSpaceConfigs).
type Embedder struct {
	spaceDims map[vectorstore.Space]int
}

// NewEmbedder builds an Embedder sized from the store's default space
// configuration.
func NewEmbedder() *Embedder {
	cfgs := vectorstore.DefaultSpaceConfigs()
	dims := make(map[vectorstore.Space]int, len(cfgs))
	for space, cfg := range cfgs {
		dims[space] = cfg.Dimension
	}
	return &Embedder{spaceDims: dims}
}

// Dimension reports the configured dimension for a space, or 0 if unknown.
func (e *Embedder) Dimension(space vectorstore.Space) int {
	return e.spaceDims[space]
}

// EmbedChunkText builds the canonical chunk-indexing embedding at the
// semantic space's dimension, blending raw text tokens with the chunk's
// promoted labels so the single vector vectorstore.Store.IndexBatch fans
// into every tier-admitted space carries psychology-pipeline signal, not
// just raw text (see DESIGN.md's note on IndexBatch's one-embedding-per-
// record design).
func (e *Embedder) EmbedChunkText(text string, labelsCoarse, labelsFine []string) []float32 {
	dim := e.spaceDims[vectorstore.SpaceSemantic]
	if dim == 0 {
		dim = 384
	}
	features := tokenize(text)
	features = append(features, labelsCoarse...)
	features = append(features, labelsFine...)
	return hashFeatures(features, dim, "chunk")
}

// EmbedQuery implements rag.Embedder: one feature-hashed vector per space,
// each seeded independently by space name so the four spaces are not
// numerically identical despite sharing one hashing algorithm.
func (e *Embedder) EmbedQuery(_ context.Context, text string) (map[vectorstore.Space][]float32, error) {
	tokens := tokenize(text)
	out := make(map[vectorstore.Space][]float32, len(e.spaceDims))
	for space, dim := range e.spaceDims {
		out[space] = hashFeatures(tokens, dim, string(space))
	}
	return out, nil
}

func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// hashFeatures implements the signed hashing trick: each feature hashes to
// a bucket in [0, dim) with a sign derived from a second hash bit, summed
// per bucket, then L2-normalized.
func hashFeatures(features []string, dim int, seed string) []float32 {
	if dim <= 0 {
		return nil
	}
	buckets := make([]float64, dim)
	for _, f := range features {
		h := fnv.New64a()
		h.Write([]byte(seed))
		h.Write([]byte{'|'})
		h.Write([]byte(f))
		sum := h.Sum64()
		idx := int(sum % uint64(dim))
		sign := 1.0
		if (sum>>1)%2 == 1 {
			sign = -1.0
		}
		buckets[idx] += sign
	}

	var norm float64
	for _, v := range buckets {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, dim)
	if norm == 0 {
		return out
	}
	for i, v := range buckets {
		out[i] = float32(v / norm)
	}
	return out
}
