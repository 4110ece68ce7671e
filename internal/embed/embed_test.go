package embed

import (
	"context"
	"math"
	"testing"

	"chatlens/internal/vectorstore"
)

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestEmbedChunkTextIsDeterministic(t *testing.T) {
	e := NewEmbedder()
	a := e.EmbedChunkText("hello world", []string{"coarse_a"}, []string{"fine_b"})
	b := e.EmbedChunkText("hello world", []string{"coarse_a"}, []string{"fine_b"})
	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("vectors diverged at index %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestEmbedChunkTextDimensionMatchesSemanticSpace(t *testing.T) {
	e := NewEmbedder()
	v := e.EmbedChunkText("some text", nil, nil)
	want := vectorstore.DefaultSpaceConfigs()[vectorstore.SpaceSemantic].Dimension
	if len(v) != want {
		t.Fatalf("expected dimension %d, got %d", want, len(v))
	}
}

func TestEmbedChunkTextIsNormalized(t *testing.T) {
	e := NewEmbedder()
	v := e.EmbedChunkText("a fairly long sentence with several distinct tokens", []string{"x"}, []string{"y"})
	n := vectorNorm(v)
	if math.Abs(n-1.0) > 1e-6 {
		t.Fatalf("expected unit norm, got %v", n)
	}
}

func TestEmbedChunkTextEmptyInputIsZeroVector(t *testing.T) {
	e := NewEmbedder()
	v := e.EmbedChunkText("", nil, nil)
	for i, x := range v {
		if x != 0 {
			t.Fatalf("expected zero vector, index %d was %v", i, x)
		}
	}
}

func TestEmbedQueryProducesOneVectorPerSpaceAtConfiguredDimension(t *testing.T) {
	e := NewEmbedder()
	out, err := e.EmbedQuery(context.Background(), "question text")
	if err != nil {
		t.Fatalf("embed query: %v", err)
	}
	cfgs := vectorstore.DefaultSpaceConfigs()
	for _, space := range vectorstore.AllSpaces {
		vec, ok := out[space]
		if !ok {
			t.Fatalf("missing space %s", space)
		}
		if len(vec) != cfgs[space].Dimension {
			t.Fatalf("space %s: expected dimension %d, got %d", space, cfgs[space].Dimension, len(vec))
		}
	}
}

func TestEmbedQueryDiffersAcrossSpaces(t *testing.T) {
	e := NewEmbedder()
	out, err := e.EmbedQuery(context.Background(), "repeated identical text")
	if err != nil {
		t.Fatalf("embed query: %v", err)
	}
	semantic := out[vectorstore.SpaceSemantic]
	structural := out[vectorstore.SpaceStructural]
	minLen := len(semantic)
	if len(structural) < minLen {
		minLen = len(structural)
	}
	same := true
	for i := 0; i < minLen; i++ {
		if semantic[i] != structural[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("expected semantic and structural query vectors to differ")
	}
}
