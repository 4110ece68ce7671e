package graph

import "chatlens/internal/domain"

// patternRule names a bounded-length walk of relationship types that,
// found in order within a sliding window of a contact's edge history,
// signals one of the 32 closed pattern templates (spec.md §4.4,
// §GLOSSARY). Each template's confidence is `base + factor * walk_length`,
// clipped to 1, per spec.md §4.4. Grounded on
// original_source/src/chatx/storage/graph.py's path-query pattern
// detectors, re-expressed as an ordered-subsequence walk over
// RelationshipsByContact's chronological edge list rather than a Cypher
// path query (no Neo4j driver in this stack; see package doc).
type patternRule struct {
	Template domain.PatternTemplate
	Walk     []domain.RelationshipType
	Base     float64
	Factor   float64
}

// rule builds a patternRule with the spec's default confidence function
// shape (base 0.5, factor 0.1 per walk step, clipped to 1 by the caller).
func rule(t domain.PatternTemplate, walk ...domain.RelationshipType) patternRule {
	return patternRule{Template: t, Walk: walk, Base: 0.5, Factor: 0.1}
}

// defaultPatternRules is the bundled detector set for all 32 templates.
func defaultPatternRules() []patternRule {
	return []patternRule{
		rule(domain.PatternEscalationCycle, domain.RelConflictEscalation, domain.RelConflictEscalation),
		rule(domain.PatternRepairCycle, domain.RelConflictEscalation, domain.RelRepairAttempt, domain.RelRepairAcceptance),
		rule(domain.PatternBoundaryTesting, domain.RelBoundarySetting, domain.RelBoundaryTesting),
		rule(domain.PatternSexualEscalationCycle, domain.RelIntimacyDeepening, domain.RelIntimacyDeepening),
		rule(domain.PatternConsentErosion, domain.RelBoundaryTesting, domain.RelBoundaryViolation),
		rule(domain.PatternPowerStruggleCycle, domain.RelPowerAssertion, domain.RelPowerStruggle, domain.RelPowerSubmission),
		rule(domain.PatternGaslightingSequence, domain.RelGaslighting, domain.RelInvalidation),
		rule(domain.PatternManipulationSequence, domain.RelGuiltTripping, domain.RelLoveBombing),
		rule(domain.PatternIsolationCampaign, domain.RelIsolationTactic, domain.RelIsolationTactic),
		rule(domain.PatternTrustRebuildingArc, domain.RelTrustErosion, domain.RelTrustRepair, domain.RelTrustBuilding),
		rule(domain.PatternStonewallSpiral, domain.RelStonewalling, domain.RelStonewalling),
		rule(domain.PatternCriticismContemptSpiral, domain.RelCriticism, domain.RelContempt),
		rule(domain.PatternLoveBombingCycle, domain.RelLoveBombing, domain.RelIntimacyWithdrawal),
		rule(domain.PatternAnxiousAvoidantLoop, domain.RelAnxiousPursuit, domain.RelAvoidantWithdrawal),
		rule(domain.PatternSilentTreatmentCycle, domain.RelSilentTreatment, domain.RelRepairAttempt),
		rule(domain.PatternTriangulationWeb, domain.RelTriangulation, domain.RelTriangulation),
		rule(domain.PatternGuiltTrippingSequence, domain.RelGuiltTripping, domain.RelGuiltTripping),
		rule(domain.PatternSupportReciprocity, domain.RelSupportSeeking, domain.RelSupportOffering),
		rule(domain.PatternValidationStarvation, domain.RelInvalidation, domain.RelInvalidation),
		rule(domain.PatternProtestWithdrawCycle, domain.RelProtestBehavior, domain.RelAvoidantWithdrawal),
		rule(domain.PatternRepeatedRepairRejection, domain.RelRepairAttempt, domain.RelRepairRejection, domain.RelRepairAttempt, domain.RelRepairRejection),
		rule(domain.PatternVulnerabilityReciprocity, domain.RelVulnerabilitySharing, domain.RelVulnerabilitySharing),
		rule(domain.PatternBoundaryReinforcementArc, domain.RelBoundaryTesting, domain.RelBoundaryReinforcement),
		rule(domain.PatternPowerBalancingArc, domain.RelPowerStruggle, domain.RelPowerBalancing),
		rule(domain.PatternTopicAvoidancePattern, domain.RelTopicShift, domain.RelTopicShift),
		rule(domain.PatternConflictAvoidanceLoop, domain.RelConflictAvoidance, domain.RelConflictAvoidance),
		rule(domain.PatternEmotionalMirroringArc, domain.RelEmotionalMirroring, domain.RelEmotionalMirroring),
		rule(domain.PatternDirectnessShiftPattern, domain.RelIndirectCommunication, domain.RelDirectCommunication),
		rule(domain.PatternIntimacyWithdrawalSpiral, domain.RelIntimacyWithdrawal, domain.RelIntimacyWithdrawal),
		rule(domain.PatternTrustTestingSequence, domain.RelTrustTesting, domain.RelTrustTesting),
		rule(domain.PatternDefensivenessLoop, domain.RelCriticism, domain.RelDefensiveness),
		rule(domain.PatternSecureBaseFormation, domain.RelSecureReassurance, domain.RelTrustBuilding),
	}
}

// DetectedPattern is one pattern template found within a window.
type DetectedPattern struct {
	Template   domain.PatternTemplate
	Confidence float64
	WalkLength int
}

// DetectPatterns scans a contact's chronologically ordered edge history for
// every bundled pattern-template walk, as an ordered subsequence within a
// sliding window of windowSize consecutive edges (spec.md §4.4's "bounded-
// length path queries over the typed graph"). Confidence is
// base + factor * walk_length, clipped to 1. A template may match more
// than once; each match is reported separately.
func DetectPatterns(edges []domain.GraphRelationship, windowSize int) []DetectedPattern {
	if windowSize <= 0 {
		windowSize = 6
	}
	rules := defaultPatternRules()

	var out []DetectedPattern
	for start := 0; start < len(edges); start++ {
		end := start + windowSize
		if end > len(edges) {
			end = len(edges)
		}
		window := edges[start:end]
		for _, r := range rules {
			if matchWalk(window, r.Walk) {
				confidence := r.Base + r.Factor*float64(len(r.Walk))
				if confidence > 1 {
					confidence = 1
				}
				out = append(out, DetectedPattern{Template: r.Template, Confidence: confidence, WalkLength: len(r.Walk)})
			}
		}
	}
	return out
}

// matchWalk reports whether walk appears as an ordered subsequence of
// window's relationship types.
func matchWalk(window []domain.GraphRelationship, walk []domain.RelationshipType) bool {
	if len(walk) == 0 {
		return false
	}
	walkIdx := 0
	for _, edge := range window {
		if walkIdx >= len(walk) {
			break
		}
		if edge.Type == walk[walkIdx] {
			walkIdx++
		}
	}
	return walkIdx >= len(walk)
}
