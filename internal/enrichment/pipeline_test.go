package enrichment

import (
	"context"
	"testing"

	"chatlens/internal/domain"
	"chatlens/internal/llm"
)

func TestEntityPassEmitsOnlyNonZeroCategories(t *testing.T) {
	result := RunEntityPass("I'm so angry we keep fighting about this")
	if result.Confidence != 0.8 {
		t.Fatalf("expected base confidence 0.8, got %v", result.Confidence)
	}
	hasEmotional, hasConflict := false, false
	for _, l := range result.Labels {
		if l == "emotional" {
			hasEmotional = true
		}
		if l == "conflict" {
			hasConflict = true
		}
		if l == "temporal" {
			t.Fatalf("did not expect temporal category for this text")
		}
	}
	if !hasEmotional || !hasConflict {
		t.Fatalf("expected emotional and conflict categories, got %v", result.Labels)
	}
}

func TestPipelineRunPromotesHighConfidence(t *testing.T) {
	client := &llm.MockClient{
		Responses: []string{
			`{"speech_act":"inform","communication_style":"direct","turn_pattern":"responding","boundary_signal":"none","confidence":0.9}`,
			`{"coarse_labels":["support"],"fine_labels":[],"primary_emotion":"joy","emotion_confidence":0.9,"attachment_style":"secure","intimacy_level":3,"needs":{"autonomy":0.1,"competence":0.2,"relatedness":0.5},"defense_mechanisms":[],"relational_power":0.1,"confidence":0.85}`,
			`{"relationship_stage":"norming","interaction_quality":"warm","trust_level":4,"conflict_style":"collaborative","temporal_flow":"steady","emotional_trajectory":"improving","attachment_behaviors":[],"longitudinal_labels":["trust_building"],"confidence":0.9}`,
		},
	}
	tax := domain.DefaultLabelTaxonomy()
	pipeline := NewPipeline(client, "llama3", tax, DefaultConfidenceBand())

	chunk := domain.Chunk{ChunkID: "c1", Text: "thanks for always being there for me"}
	result := pipeline.Run(context.Background(), chunk, nil, nil)

	if !result.Promoted {
		t.Fatalf("expected high-confidence result to be promoted, confidence=%v", result.Enrichment.ConfidenceLLM)
	}
	if len(result.Passes) != 4 {
		t.Fatalf("expected 4 pass results, got %d", len(result.Passes))
	}
	for _, l := range result.Enrichment.LabelsCoarse {
		if tax.IsFine(l) {
			t.Fatalf("coarse label set must not intersect fine-only set, found %q", l)
		}
	}
}

func TestPipelineRunHandlesModelFailureGracefully(t *testing.T) {
	client := &llm.MockClient{Err: errTest("boom")}
	tax := domain.DefaultLabelTaxonomy()
	pipeline := NewPipeline(client, "llama3", tax, DefaultConfidenceBand())

	chunk := domain.Chunk{ChunkID: "c1", Text: "hello"}
	result := pipeline.Run(context.Background(), chunk, nil, nil)

	if result.Promoted {
		t.Fatalf("expected failed passes not to be promoted")
	}
	for _, p := range result.Passes[1:] {
		if !p.Failed() {
			t.Fatalf("expected model-dependent pass %q to be marked failed", p.Name)
		}
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
