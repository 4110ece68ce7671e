// Package enrichment runs the four ordered analysis passes (entities,
// structure, psychology, relationships) producing an Enrichment record per
// chunk, with confidence-gated promotion into indexed metadata
// (spec.md §4.2). Grounded on
// original_source/src/chatx/enrichment/multi_pass_pipeline.py for pass
// ordering and on the teacher's analysis_service.go for the Go shape of
// "one model call -> parse -> validate -> persist".
package enrichment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"chatlens/internal/domain"
	"chatlens/internal/llm"
)

const pipelineVersion = "1"

// ConfidenceBand is the hysteresis band separating promoted from sidelined
// enrichments (spec.md §4.2 default 0.62/0.70/0.78).
type ConfidenceBand struct {
	Low  float64
	Mid  float64
	High float64
}

// DefaultConfidenceBand matches spec.md §4.2's default.
func DefaultConfidenceBand() ConfidenceBand {
	return ConfidenceBand{Low: 0.62, Mid: 0.70, High: 0.78}
}

// Promoted reports whether confidence clears the band's high threshold —
// only high-confidence enrichments are promoted to indexed metadata.
func (b ConfidenceBand) Promoted(confidence float64) bool {
	return confidence >= b.High
}

// Pipeline runs the four enrichment passes against a model client and
// label taxonomy.
type Pipeline struct {
	client llm.ModelClient
	model  string
	tax    *domain.LabelTaxonomy
	band   ConfidenceBand
}

// NewPipeline builds a Pipeline.
func NewPipeline(client llm.ModelClient, model string, tax *domain.LabelTaxonomy, band ConfidenceBand) *Pipeline {
	return &Pipeline{client: client, model: model, tax: tax, band: band}
}

// Result is the pipeline's per-chunk output: the enrichment record, the
// four pass results (for sidecar/quarantine inspection), and whether the
// overall confidence cleared the promotion band.
type Result struct {
	Enrichment domain.Enrichment
	Passes     []domain.PassResult
	Promoted   bool
}

// Run executes all four passes in order for one chunk, threading an
// EnrichmentContext across them, and returns the combined record.
// historyWindow is the text of up to N prior enriched chunks in the same
// conversation, used by Pass 4 (may be nil).
func (p *Pipeline) Run(ctx context.Context, chunk domain.Chunk, enrichCtx *domain.EnrichmentContext, historyWindow []string) Result {
	if enrichCtx == nil {
		enrichCtx = domain.NewEnrichmentContext()
	}

	entities := RunEntityPass(chunk.Text)
	enrichCtx.Merge(entities.Labels)

	structure := RunStructurePass(ctx, p.client, p.model, *p.tax, chunk.Text)
	enrichCtx.Merge(structure.Labels)

	priorLabels := append(append([]string{}, entities.Labels...), structure.Labels...)
	psychology, psychRaw := RunPsychologyPass(ctx, p.client, p.model, *p.tax, priorLabels, chunk.Text)
	enrichCtx.Merge(psychology.Labels)

	unionLabels := append(append([]string{}, priorLabels...), psychology.Labels...)
	relationships := RunRelationshipsPass(ctx, p.client, p.model, unionLabels, historyWindow, chunk.Text)
	enrichCtx.Merge(relationships.Labels)
	enrichCtx.PatternsDetected = append(enrichCtx.PatternsDetected, relationships.Labels...)

	allLabels := append(append([]string{}, unionLabels...), relationships.Labels...)
	coarse, fine := p.tax.SplitCoarseFine(allLabels)

	overallConfidence := combinedConfidence(entities, structure, psychology, relationships)

	enrichment := domain.Enrichment{
		ChunkID:        chunk.ChunkID,
		SpeechAct:      domain.SpeechAct(stringMeta(structure.Metadata, "speech_act")),
		PrimaryEmotion: domain.PrimaryEmotion(stringMeta(psychology.Metadata, "primary_emotion")),
		BoundarySignal: domain.BoundarySignal(stringMeta(structure.Metadata, "boundary_signal")),
		LabelsCoarse:   coarse,
		LabelsFine:     fine,
		Needs: domain.NeedScores{
			Autonomy:    psychRaw.Needs.Autonomy,
			Competence:  psychRaw.Needs.Competence,
			Relatedness: psychRaw.Needs.Relatedness,
		},
		AttachmentStyle:   stringMeta(psychology.Metadata, "attachment_style"),
		IntimacyLevel:     psychRaw.IntimacyLevel,
		DefenseMechanisms: psychRaw.DefenseMechanisms,
		RelationalPower:   psychRaw.RelationalPower,
		ConfidenceLLM:     overallConfidence,
		Provenance: domain.EnrichmentProvenance{
			Model:             p.model,
			PromptFingerprint: promptFingerprint(chunk.Text),
			PipelineVersion:   pipelineVersion,
			PassDurations: map[string]time.Duration{
				"entities":      entities.Duration,
				"structure":     structure.Duration,
				"psychology":    psychology.Duration,
				"relationships": relationships.Duration,
			},
		},
	}

	return Result{
		Enrichment: enrichment,
		Passes:     []domain.PassResult{entities, structure, psychology, relationships},
		Promoted:   p.band.Promoted(overallConfidence),
	}
}

// combinedConfidence is the mean confidence over every pass; a
// failed pass (PassResult.Failed()) contributes 0 and is still counted,
// per spec.md §4.2 "any pass failure is captured ... without halting
// later passes".
func combinedConfidence(passes ...domain.PassResult) float64 {
	if len(passes) == 0 {
		return 0
	}
	var sum float64
	for _, p := range passes {
		sum += p.Confidence
	}
	return sum / float64(len(passes))
}

func stringMeta(meta map[string]interface{}, key string) string {
	if meta == nil {
		return ""
	}
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}

// promptFingerprint hashes the prompt text so provenance can detect
// whether re-running would plausibly reproduce the same output.
func promptFingerprint(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])[:16]
}

// ApplyToChunk mutates chunk's metadata per spec.md §4.2 integration: adds
// meta.labels_coarse always, and meta.labels_fine_local only when tier is
// local_only.
func ApplyToChunk(chunk *domain.Chunk, result Result, tier domain.PrivacyTier) {
	chunk.Meta.LabelsCoarse = result.Enrichment.LabelsCoarse
	if tier == domain.TierLocalOnly {
		chunk.Meta.LabelsFineLocal = result.Enrichment.LabelsFine
	}
}
