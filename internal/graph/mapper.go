// Package graph implements the psychology relationship graph: a typed
// edge set between chunk-nodes, the psychology-label-to-relationship
// mapper, the 32 closed pattern templates, and temporal-evolution
// aggregation, per spec.md §4.4. Grounded on
// original_source/src/chatx/storage/{graph,psychology_relationship_mapper}.py
// for the mapping algorithm and pattern-template catalog, and on the
// teacher's character_repo.go for the Postgres/pgx persistence idiom
// (Neo4j, the original's graph backend, has no counterpart in the
// teacher's or the rest of the pack's go.mod; see DESIGN.md).
package graph

import (
	"sort"

	"chatlens/internal/domain"
)

// MappingRule maps a source-label set to a target relationship type with a
// base confidence, per-context weight table, and optional sequence/
// exclusion constraints (spec.md §4.4 `PsychologyRelationshipMapper`).
type MappingRule struct {
	SourceLabels     map[string]bool
	Target           domain.RelationshipType
	BaseConfidence   float64
	ContextWeight    map[domain.RelationshipContext]float64
	RequiredSequence bool
	ExclusionLabels  map[string]bool
}

func labelSet(labels ...string) map[string]bool {
	m := make(map[string]bool, len(labels))
	for _, l := range labels {
		m[l] = true
	}
	return m
}

// DefaultMappingRules is the bundled rule set, a representative slice of
// the original_source's 470+ psychology-construct catalog re-expressed
// against this port's own label taxonomy (internal/domain.LabelTaxonomy),
// with rules for the trust, intimacy, conflict, boundary, power, support,
// manipulation and communication categories. No rule targets an
// attachment-dynamics or temporal/structural RelationshipType.
func DefaultMappingRules() []MappingRule {
	return []MappingRule{
		{
			SourceLabels:   labelSet("trust_building", "support"),
			Target:         domain.RelTrustBuilding,
			BaseConfidence: 0.75,
			ContextWeight: map[domain.RelationshipContext]float64{
				domain.RelationshipRomantic: 1.1, domain.RelationshipFriend: 1.0, domain.RelationshipFamily: 1.0,
			},
		},
		{
			SourceLabels:   labelSet("distance", "conflict"),
			Target:         domain.RelTrustErosion,
			BaseConfidence: 0.7,
			ContextWeight: map[domain.RelationshipContext]float64{
				domain.RelationshipRomantic: 1.1, domain.RelationshipFamily: 1.0,
			},
			ExclusionLabels: labelSet("trust_building"),
		},
		{
			SourceLabels:   labelSet("apology", "trust_building"),
			Target:         domain.RelTrustRepair,
			BaseConfidence: 0.65,
			ContextWeight:  map[domain.RelationshipContext]float64{domain.RelationshipRomantic: 1.0, domain.RelationshipFriend: 1.0},
			RequiredSequence: true,
		},
		{
			SourceLabels:   labelSet("boundary", "distance"),
			Target:         domain.RelTrustTesting,
			BaseConfidence: 0.6,
			ContextWeight:  map[domain.RelationshipContext]float64{domain.RelationshipRomantic: 1.0},
		},
		{
			SourceLabels:   labelSet("infidelity_indicator"),
			Target:         domain.RelTrustBetrayal,
			BaseConfidence: 0.9,
			ContextWeight:  map[domain.RelationshipContext]float64{domain.RelationshipRomantic: 1.2, domain.RelationshipSexual: 1.1},
		},
		{
			SourceLabels:   labelSet("intimacy", "affection"),
			Target:         domain.RelIntimacyDeepening,
			BaseConfidence: 0.75,
			ContextWeight:  map[domain.RelationshipContext]float64{domain.RelationshipRomantic: 1.2, domain.RelationshipSexual: 1.2},
		},
		{
			SourceLabels:   labelSet("distance", "intimacy"),
			Target:         domain.RelIntimacyWithdrawal,
			BaseConfidence: 0.6,
			ContextWeight:  map[domain.RelationshipContext]float64{domain.RelationshipRomantic: 1.1},
		},
		{
			SourceLabels:   labelSet("trauma_indicator", "trust_building"),
			Target:         domain.RelVulnerabilitySharing,
			BaseConfidence: 0.7,
			ContextWeight:  map[domain.RelationshipContext]float64{domain.RelationshipRomantic: 1.1, domain.RelationshipFriend: 1.0},
		},
		{
			SourceLabels:   labelSet("affection", "support"),
			Target:         domain.RelEmotionalMirroring,
			BaseConfidence: 0.55,
			ContextWeight:  map[domain.RelationshipContext]float64{domain.RelationshipRomantic: 1.0, domain.RelationshipFriend: 1.0},
		},
		{
			SourceLabels:   labelSet("conflict", "frustration"),
			Target:         domain.RelConflictEscalation,
			BaseConfidence: 0.8,
			ContextWeight:  map[domain.RelationshipContext]float64{domain.RelationshipRomantic: 1.1, domain.RelationshipFamily: 1.05},
		},
		{
			SourceLabels:   labelSet("conflict", "reassurance"),
			Target:         domain.RelConflictDeescalation,
			BaseConfidence: 0.65,
			ContextWeight:  map[domain.RelationshipContext]float64{domain.RelationshipRomantic: 1.0},
		},
		{
			SourceLabels:   labelSet("distance", "conflict"),
			Target:         domain.RelConflictAvoidance,
			BaseConfidence: 0.55,
			ContextWeight:  map[domain.RelationshipContext]float64{domain.RelationshipFamily: 1.0},
			ExclusionLabels: labelSet("apology"),
		},
		{
			SourceLabels:     labelSet("apology"),
			Target:           domain.RelRepairAttempt,
			BaseConfidence:   0.7,
			ContextWeight:    map[domain.RelationshipContext]float64{domain.RelationshipRomantic: 1.0, domain.RelationshipFriend: 1.0},
			RequiredSequence: true,
		},
		{
			SourceLabels:     labelSet("gratitude", "apology"),
			Target:           domain.RelRepairAcceptance,
			BaseConfidence:   0.65,
			ContextWeight:    map[domain.RelationshipContext]float64{domain.RelationshipRomantic: 1.0},
			RequiredSequence: true,
		},
		{
			SourceLabels:     labelSet("distance", "apology"),
			Target:           domain.RelRepairRejection,
			BaseConfidence:   0.6,
			ContextWeight:    map[domain.RelationshipContext]float64{domain.RelationshipRomantic: 1.0},
			RequiredSequence: true,
		},
		{
			SourceLabels:   labelSet("boundary"),
			Target:         domain.RelBoundarySetting,
			BaseConfidence: 0.75,
			ContextWeight:  map[domain.RelationshipContext]float64{domain.RelationshipRomantic: 1.0, domain.RelationshipFamily: 1.0},
		},
		{
			SourceLabels:   labelSet("boundary", "distance"),
			Target:         domain.RelBoundaryTesting,
			BaseConfidence: 0.6,
			ContextWeight:  map[domain.RelationshipContext]float64{domain.RelationshipRomantic: 1.0},
		},
		{
			SourceLabels:   labelSet("boundary", "conflict"),
			Target:         domain.RelBoundaryViolation,
			BaseConfidence: 0.7,
			ContextWeight:  map[domain.RelationshipContext]float64{domain.RelationshipRomantic: 1.1, domain.RelationshipFamily: 1.0},
		},
		{
			SourceLabels:   labelSet("boundary", "trust_building"),
			Target:         domain.RelBoundaryReinforcement,
			BaseConfidence: 0.55,
			ContextWeight:  map[domain.RelationshipContext]float64{domain.RelationshipRomantic: 1.0},
		},
		{
			SourceLabels:   labelSet("frustration", "conflict"),
			Target:         domain.RelPowerStruggle,
			BaseConfidence: 0.65,
			ContextWeight:  map[domain.RelationshipContext]float64{domain.RelationshipRomantic: 1.0, domain.RelationshipProfessional: 1.1},
		},
		{
			SourceLabels:   labelSet("support"),
			Target:         domain.RelSupportSeeking,
			BaseConfidence: 0.6,
			ContextWeight:  map[domain.RelationshipContext]float64{domain.RelationshipFriend: 1.1, domain.RelationshipFamily: 1.0},
		},
		{
			SourceLabels:   labelSet("support", "reassurance"),
			Target:         domain.RelSupportOffering,
			BaseConfidence: 0.7,
			ContextWeight:  map[domain.RelationshipContext]float64{domain.RelationshipFriend: 1.1, domain.RelationshipFamily: 1.0},
		},
		{
			SourceLabels:   labelSet("humor", "celebration"),
			Target:         domain.RelValidation,
			BaseConfidence: 0.5,
			ContextWeight:  map[domain.RelationshipContext]float64{domain.RelationshipFriend: 1.0},
		},
		{
			SourceLabels:   labelSet("frustration", "distance"),
			Target:         domain.RelInvalidation,
			BaseConfidence: 0.55,
			ContextWeight:  map[domain.RelationshipContext]float64{domain.RelationshipRomantic: 1.0},
		},
		{
			SourceLabels:   labelSet("mental_health_specific", "distance"),
			Target:         domain.RelGaslighting,
			BaseConfidence: 0.5,
			ContextWeight:  map[domain.RelationshipContext]float64{domain.RelationshipRomantic: 1.1},
		},
		{
			SourceLabels:   labelSet("self_harm_indicator", "boundary"),
			Target:         domain.RelGuiltTripping,
			BaseConfidence: 0.55,
			ContextWeight:  map[domain.RelationshipContext]float64{domain.RelationshipFamily: 1.1, domain.RelationshipRomantic: 1.0},
		},
		{
			SourceLabels:   labelSet("affection", "intimacy"),
			Target:         domain.RelLoveBombing,
			BaseConfidence: 0.45,
			ContextWeight:  map[domain.RelationshipContext]float64{domain.RelationshipRomantic: 1.2},
		},
		{
			SourceLabels:   labelSet("distance"),
			Target:         domain.RelSilentTreatment,
			BaseConfidence: 0.5,
			ContextWeight:  map[domain.RelationshipContext]float64{domain.RelationshipRomantic: 1.1, domain.RelationshipFamily: 1.0},
		},
		{
			SourceLabels:   labelSet("boundary", "frustration"),
			Target:         domain.RelDirectCommunication,
			BaseConfidence: 0.5,
			ContextWeight:  map[domain.RelationshipContext]float64{domain.RelationshipProfessional: 1.1},
		},
		{
			SourceLabels:   labelSet("distance", "frustration"),
			Target:         domain.RelStonewalling,
			BaseConfidence: 0.55,
			ContextWeight:  map[domain.RelationshipContext]float64{domain.RelationshipRomantic: 1.1},
		},
		{
			SourceLabels:   labelSet("frustration"),
			Target:         domain.RelCriticism,
			BaseConfidence: 0.5,
			ContextWeight:  map[domain.RelationshipContext]float64{domain.RelationshipRomantic: 1.0, domain.RelationshipFamily: 1.0},
		},
	}
}

// MappedRelationship is one admitted label-pair -> relationship type
// result, per spec.md §4.4.
type MappedRelationship struct {
	Type       domain.RelationshipType
	Confidence float64
}

// MapLabelsToRelationships implements spec.md §4.4's exact algorithm:
// for the union of labels1 and labels2, admit every rule whose source
// labels intersect the union and whose exclusion labels do not, compute
// confidence = min(1, base * context_weight[context] + 0.2 * overlap_ratio)
// where overlap_ratio = |source ∩ combined| / |source|, admit > 0.3, sort
// descending, return the top 5.
func MapLabelsToRelationships(rules []MappingRule, labels1, labels2 []string, context domain.RelationshipContext, temporalSequence bool) []MappedRelationship {
	combined := make(map[string]bool, len(labels1)+len(labels2))
	for _, l := range labels1 {
		combined[l] = true
	}
	for _, l := range labels2 {
		combined[l] = true
	}

	var out []MappedRelationship
	for _, rule := range rules {
		if !intersects(rule.SourceLabels, combined) {
			continue
		}
		if intersects(rule.ExclusionLabels, combined) {
			continue
		}
		if rule.RequiredSequence && !temporalSequence {
			continue
		}

		contextWeight := rule.ContextWeight[context]
		if contextWeight == 0 {
			contextWeight = 1.0
		}
		overlapRatio := float64(intersectionCount(rule.SourceLabels, combined)) / float64(len(rule.SourceLabels))
		confidence := rule.BaseConfidence*contextWeight + 0.2*overlapRatio
		if confidence > 1 {
			confidence = 1
		}

		if confidence > 0.3 {
			out = append(out, MappedRelationship{Type: rule.Target, Confidence: confidence})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}

func intersects(set, other map[string]bool) bool {
	for l := range set {
		if other[l] {
			return true
		}
	}
	return false
}

func intersectionCount(set, other map[string]bool) int {
	n := 0
	for l := range set {
		if other[l] {
			n++
		}
	}
	return n
}
