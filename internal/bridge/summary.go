package bridge

import (
	"math/rand"
	"strings"

	"chatlens/internal/domain"
	"chatlens/internal/policy"
)

// ContextSummary is abstraction level 3 ("high abstract"): five pattern
// strings, four sensitive-topic presence flags, four noisy [0,1] scores,
// and a list of privacy tokens referencing fine details without disclosing
// them. See spec.md §4.3.
type ContextSummary struct {
	TemporalPattern     string `json:"temporal_pattern"`
	EmotionalTrajectory string `json:"emotional_trajectory"`
	RelationshipDynamic string `json:"relationship_dynamic"`
	CommunicationStyle  string `json:"communication_style"`
	ConflictPattern     string `json:"conflict_pattern"`

	SubstanceContextPresent bool `json:"substance_context_present"`
	IntimateContextPresent  bool `json:"intimate_context_present"`
	BoundaryDiscussionPresent bool `json:"boundary_discussion_present"`
	TraumaIndicatorsPresent bool `json:"trauma_indicators_present"`

	EmotionalIntensityScore float64 `json:"emotional_intensity_score"`
	ConflictEscalationScore float64 `json:"conflict_escalation_score"`
	IntimacyProgressionScore float64 `json:"intimacy_progression_score"`
	TrustStabilityScore     float64 `json:"trust_stability_score"`

	PrivacyTokens []string `json:"privacy_tokens"`

	AbstractionLevel AbstractionLevel  `json:"abstraction_level"`
	PrivacyTier      domain.PrivacyTier `json:"privacy_tier"`
}

// AbstractionLevel is the four-rung ladder spec.md §4.3 defines.
type AbstractionLevel string

const (
	LevelFullDetail    AbstractionLevel = "full_detail"
	LevelMediumAbstract AbstractionLevel = "medium_abstract"
	LevelHighAbstract  AbstractionLevel = "high_abstract"
	LevelPatternOnly   AbstractionLevel = "pattern_only"
)

// WindowEntry is one message's enrichment as seen by the abstraction engine
// when summarizing a conversation window.
type WindowEntry struct {
	Enrichment domain.Enrichment
}

var emotionIntensity = map[domain.PrimaryEmotion]float64{
	domain.EmotionJoy: 0.7, domain.EmotionAnger: 0.9, domain.EmotionSadness: 0.6,
	domain.EmotionFear: 0.8, domain.EmotionDisgust: 0.7, domain.EmotionSurprise: 0.6,
	domain.EmotionNeutral: 0.0,
}

// AbstractionEngine derives ContextSummary from a local enrichment record
// and its surrounding conversation window, adding Laplace noise to every
// numerical score (spec.md §4.3). Grounded on
// original_source/src/chatx/privacy/hierarchical_context.py's
// AbstractionEngine.
type AbstractionEngine struct {
	epsilon   float64
	rng       *rand.Rand
	tokenizer *PrivacyTokenizer
}

// NewAbstractionEngine builds an engine with a deterministic salt-seeded
// RNG, per spec.md §4.1's determinism rule (internal/policy.SeedFromSalt).
func NewAbstractionEngine(salt []byte, epsilon float64, tokenizer *PrivacyTokenizer) *AbstractionEngine {
	if epsilon <= 0 {
		epsilon = 1.0
	}
	return &AbstractionEngine{
		epsilon:   epsilon,
		rng:       rand.New(rand.NewSource(policy.SeedFromSalt(salt))),
		tokenizer: tokenizer,
	}
}

// CreateContextSummary builds the high-abstract ContextSummary for a
// chunk's enrichment in the context of its conversation window.
func (e *AbstractionEngine) CreateContextSummary(local domain.Enrichment, window []WindowEntry) ContextSummary {
	fine := local.LabelsFine
	coarse := local.LabelsCoarse

	return ContextSummary{
		TemporalPattern:     abstractTemporalPattern(len(window)),
		EmotionalTrajectory: abstractEmotionalTrajectory(window),
		RelationshipDynamic: abstractRelationshipDynamic(coarse),
		CommunicationStyle:  abstractCommunicationStyle(local),
		ConflictPattern:     abstractConflictPattern(coarse),

		SubstanceContextPresent:   containsSubstring(fine, "substance"),
		IntimateContextPresent:    containsSubstring(fine, "intimacy") || containsSubstring(fine, "sexual"),
		BoundaryDiscussionPresent: containsSubstring(fine, "boundary"),
		TraumaIndicatorsPresent:   containsSubstring(fine, "trauma"),

		EmotionalIntensityScore:  e.dpEmotionalIntensity(window),
		ConflictEscalationScore:  e.dpConflictEscalation(window),
		IntimacyProgressionScore: e.dpIntimacyProgression(window),
		TrustStabilityScore:      e.dpTrustStability(window),

		PrivacyTokens: e.tokenizer.TokensForFineLabels(fine),

		AbstractionLevel: LevelHighAbstract,
		PrivacyTier:      domain.TierCloudSafe,
	}
}

func containsSubstring(labels []string, needle string) bool {
	for _, l := range labels {
		if strings.Contains(l, needle) {
			return true
		}
	}
	return false
}

func abstractTemporalPattern(messageCount int) string {
	switch {
	case messageCount == 0:
		return "single_message_pattern"
	case messageCount == 1:
		return "single_message_pattern"
	case messageCount <= 5:
		return "brief_exchange_pattern"
	case messageCount <= 20:
		return "moderate_conversation_pattern"
	case messageCount <= 50:
		return "extended_conversation_pattern"
	default:
		return "lengthy_discussion_pattern"
	}
}

func abstractEmotionalTrajectory(window []WindowEntry) string {
	if len(window) == 0 {
		return "neutral_stable_trajectory"
	}
	seen := make(map[domain.PrimaryEmotion]bool, len(window))
	for _, w := range window {
		seen[w.Enrichment.PrimaryEmotion] = true
	}
	if len(seen) == 1 {
		for e := range seen {
			return string(e) + "_stable_trajectory"
		}
	}
	switch {
	case seen[domain.EmotionAnger] && seen[domain.EmotionSadness]:
		return "conflict_to_sadness_trajectory"
	case seen[domain.EmotionNeutral] && seen[domain.EmotionJoy]:
		return "neutral_to_positive_trajectory"
	case (seen[domain.EmotionAnger] || seen[domain.EmotionFear]) && seen[domain.EmotionNeutral]:
		return "negative_to_neutral_trajectory"
	default:
		return "mixed_emotional_trajectory"
	}
}

func abstractRelationshipDynamic(coarseLabels []string) string {
	switch {
	case containsLabel(coarseLabels, "trust_building"):
		return "trust_development_dynamic"
	case containsLabel(coarseLabels, "conflict_resolution"):
		return "conflict_resolution_dynamic"
	case containsLabel(coarseLabels, "intimacy"):
		return "intimacy_progression_dynamic"
	case containsLabel(coarseLabels, "support"):
		return "support_exchange_dynamic"
	}
	count := 0
	for _, l := range coarseLabels {
		for _, kw := range []string{"trust", "intimacy", "conflict", "support"} {
			if strings.Contains(l, kw) {
				count++
				break
			}
		}
	}
	if count > 2 {
		return "complex_relationship_dynamic"
	}
	return "neutral_relationship_dynamic"
}

func abstractCommunicationStyle(e domain.Enrichment) string {
	tone := string(e.Stance)
	if tone == "" {
		tone = "neutral"
	}
	switch {
	case e.Directness > 0.7:
		return "direct_" + tone + "_communication"
	case e.Directness < 0.3:
		return "indirect_" + tone + "_communication"
	default:
		return "moderate_" + tone + "_communication"
	}
}

func abstractConflictPattern(coarseLabels []string) string {
	if !containsLabel(coarseLabels, "conflict") {
		return "no_conflict_pattern"
	}
	switch {
	case containsLabel(coarseLabels, "conflict_constructive"):
		return "constructive_conflict_pattern"
	case containsLabel(coarseLabels, "conflict_destructive"):
		return "destructive_conflict_pattern"
	case containsLabel(coarseLabels, "conflict_avoidance"):
		return "conflict_avoidance_pattern"
	default:
		return "mixed_conflict_pattern"
	}
}

func containsLabel(labels []string, exact string) bool {
	for _, l := range labels {
		if l == exact {
			return true
		}
	}
	return false
}

func (e *AbstractionEngine) dpEmotionalIntensity(window []WindowEntry) float64 {
	if len(window) == 0 {
		return 0.0
	}
	var sum float64
	for _, w := range window {
		v, ok := emotionIntensity[w.Enrichment.PrimaryEmotion]
		if !ok {
			v = 0.3
		}
		sum += v
	}
	mean := sum / float64(len(window))
	noise := policy.LaplaceNoise(e.rng, 1.0/float64(len(window)), e.epsilon)
	return clip01(mean + noise)
}

func (e *AbstractionEngine) dpConflictEscalation(window []WindowEntry) float64 {
	if len(window) == 0 {
		return 0.0
	}
	var hits int
	for _, w := range window {
		if anyCoarse(w.Enrichment.LabelsCoarse, "conflict", "anger", "frustration", "argument") {
			hits++
		}
	}
	base := float64(hits) / float64(len(window))
	noise := policy.LaplaceNoise(e.rng, 1.0/float64(len(window)), e.epsilon)
	return clip01(base + noise)
}

func (e *AbstractionEngine) dpIntimacyProgression(window []WindowEntry) float64 {
	if len(window) == 0 {
		return 0.0
	}
	var hits int
	for _, w := range window {
		if anyCoarse(w.Enrichment.LabelsCoarse, "intimacy", "trust", "vulnerability", "closeness") {
			hits++
		}
	}
	base := float64(hits) / float64(len(window))
	noise := policy.LaplaceNoise(e.rng, 1.0/float64(len(window)), e.epsilon)
	return clip01(base + noise)
}

func (e *AbstractionEngine) dpTrustStability(window []WindowEntry) float64 {
	if len(window) == 0 {
		return 0.5
	}
	var positive, negative int
	for _, w := range window {
		switch {
		case anyCoarse(w.Enrichment.LabelsCoarse, "trust_building", "reliability", "consistency"):
			positive++
		case anyCoarse(w.Enrichment.LabelsCoarse, "trust_erosion", "unreliability", "betrayal"):
			negative++
		}
	}
	balance := float64(positive-negative) / float64(len(window))
	base := 0.5 + balance*0.5
	noise := policy.LaplaceNoise(e.rng, 2.0/float64(len(window)), e.epsilon)
	return clip01(base + noise)
}

func anyCoarse(labels []string, needles ...string) bool {
	for _, l := range labels {
		for _, n := range needles {
			if strings.Contains(l, n) {
				return true
			}
		}
	}
	return false
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
