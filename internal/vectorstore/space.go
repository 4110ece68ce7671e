// Package vectorstore maintains the four parallel, pgvector-backed
// embedding collections per contact (semantic, psychological, temporal,
// structural) and the weighted-fusion search across them, per spec.md
// §4.4. Grounded on
// original_source/src/chatx/indexing/{multi_vector_store,vector_store}.py
// for the space/privacy-gate/fusion semantics, and on the teacher's
// memory_repo.go for the pgx + pgvector `<=>` query idiom.
package vectorstore

import "chatlens/internal/domain"

// Space is one of the four parallel vector collections spec.md §4.4 names.
type Space string

const (
	SpaceSemantic      Space = "semantic"
	SpacePsychological Space = "psychological"
	SpaceTemporal      Space = "temporal"
	SpaceStructural    Space = "structural"
)

// AllSpaces enumerates the four spaces in their default fusion-weight order.
var AllSpaces = []Space{SpaceSemantic, SpacePsychological, SpaceTemporal, SpaceStructural}

// SpaceConfig describes one vector space's dimensionality and which batch
// privacy tiers it accepts. Dimensions follow spec.md §4.4; AllowedTiers
// is this Go port's reading of the original_source MultiVectorConfig's
// per-space "both"/"tiered"/"local" privacy_tier markers: semantic and
// structural embed from content available at any tier ("both"),
// psychological only ever embeds from coarse-or-finer label content so it
// excludes pattern_only ("tiered"), and temporal's statistical timing
// features require the full local record ("local").
type SpaceConfig struct {
	Dimension    int
	AllowedTiers map[domain.PrivacyTier]bool
}

// DefaultSpaceConfigs is the bundled configuration for the four spaces.
func DefaultSpaceConfigs() map[Space]SpaceConfig {
	return map[Space]SpaceConfig{
		SpaceSemantic: {
			Dimension: 384,
			AllowedTiers: map[domain.PrivacyTier]bool{
				domain.TierLocalOnly: true, domain.TierCloudSafe: true, domain.TierPatternOnly: true,
			},
		},
		SpacePsychological: {
			Dimension: 768,
			AllowedTiers: map[domain.PrivacyTier]bool{
				domain.TierLocalOnly: true, domain.TierCloudSafe: true,
			},
		},
		SpaceTemporal: {
			Dimension:    256,
			AllowedTiers: map[domain.PrivacyTier]bool{domain.TierLocalOnly: true},
		},
		SpaceStructural: {
			Dimension: 128,
			AllowedTiers: map[domain.PrivacyTier]bool{
				domain.TierLocalOnly: true, domain.TierCloudSafe: true, domain.TierPatternOnly: true,
			},
		},
	}
}

// DefaultFusionWeights is spec.md §4.4's default weighting for combining
// per-space similarity scores: semantic 0.4, psychological 0.3, temporal
// 0.2, structural 0.1.
func DefaultFusionWeights() map[Space]float64 {
	return map[Space]float64{
		SpaceSemantic:      0.4,
		SpacePsychological: 0.3,
		SpaceTemporal:      0.2,
		SpaceStructural:    0.1,
	}
}

// tierStrictness ranks privacy tiers from most restrictive (0, stays most
// local) to least (2, most abstracted), used to compute a batch's
// effective tier as the most restrictive tier among its members.
var tierStrictness = map[domain.PrivacyTier]int{
	domain.TierLocalOnly:   0,
	domain.TierCloudSafe:   1,
	domain.TierPatternOnly: 2,
}

// MostRestrictiveTier returns the most restrictive (lowest-ranked) tier
// present among the given tiers, per spec.md §4.4 "the batch's privacy
// tier is the most restrictive tier of its members". Empty input returns
// TierLocalOnly (the conservative default).
func MostRestrictiveTier(tiers []domain.PrivacyTier) domain.PrivacyTier {
	if len(tiers) == 0 {
		return domain.TierLocalOnly
	}
	best := tiers[0]
	for _, t := range tiers[1:] {
		if tierStrictness[t] < tierStrictness[best] {
			best = t
		}
	}
	return best
}

// Admits reports whether this space's configured tiers accept batchTier.
func (c SpaceConfig) Admits(batchTier domain.PrivacyTier) bool {
	return c.AllowedTiers[batchTier]
}
