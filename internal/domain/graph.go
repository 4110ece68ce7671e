package domain

import "time"

// RelationshipType is one of the 47 closed edge kinds in the psychology
// graph, organized in nine categories. See spec.md GLOSSARY.
type RelationshipType string

// The 47 relationship types, nine categories.
const (
	// Trust dynamics
	RelTrustBuilding   RelationshipType = "trust_building"
	RelTrustErosion    RelationshipType = "trust_erosion"
	RelTrustRepair     RelationshipType = "trust_repair"
	RelTrustTesting    RelationshipType = "trust_testing"
	RelTrustBetrayal   RelationshipType = "trust_betrayal"

	// Intimacy dynamics
	RelIntimacyDeepening RelationshipType = "intimacy_deepening"
	RelIntimacyWithdrawal RelationshipType = "intimacy_withdrawal"
	RelVulnerabilitySharing RelationshipType = "vulnerability_sharing"
	RelEmotionalMirroring RelationshipType = "emotional_mirroring"

	// Conflict dynamics
	RelConflictEscalation RelationshipType = "conflict_escalation"
	RelConflictDeescalation RelationshipType = "conflict_deescalation"
	RelConflictAvoidance  RelationshipType = "conflict_avoidance"
	RelRepairAttempt      RelationshipType = "repair_attempt"
	RelRepairAcceptance   RelationshipType = "repair_acceptance"
	RelRepairRejection    RelationshipType = "repair_rejection"

	// Boundary dynamics
	RelBoundarySetting    RelationshipType = "boundary_setting"
	RelBoundaryTesting    RelationshipType = "boundary_testing"
	RelBoundaryViolation  RelationshipType = "boundary_violation"
	RelBoundaryReinforcement RelationshipType = "boundary_reinforcement"

	// Power dynamics
	RelPowerAssertion RelationshipType = "power_assertion"
	RelPowerSubmission RelationshipType = "power_submission"
	RelPowerStruggle  RelationshipType = "power_struggle"
	RelPowerBalancing RelationshipType = "power_balancing"

	// Support dynamics
	RelSupportSeeking  RelationshipType = "support_seeking"
	RelSupportOffering RelationshipType = "support_offering"
	RelSupportRefusal  RelationshipType = "support_refusal"
	RelValidation      RelationshipType = "validation"
	RelInvalidation    RelationshipType = "invalidation"

	// Manipulation dynamics
	RelGaslighting  RelationshipType = "gaslighting"
	RelGuiltTripping RelationshipType = "guilt_tripping"
	RelLoveBombing  RelationshipType = "love_bombing"
	RelSilentTreatment RelationshipType = "silent_treatment"
	RelTriangulation RelationshipType = "triangulation"
	RelIsolationTactic RelationshipType = "isolation_tactic"

	// Attachment dynamics
	RelAnxiousPursuit  RelationshipType = "anxious_pursuit"
	RelAvoidantWithdrawal RelationshipType = "avoidant_withdrawal"
	RelSecureReassurance RelationshipType = "secure_reassurance"
	RelProtestBehavior RelationshipType = "protest_behavior"

	// Communication dynamics
	RelDirectCommunication RelationshipType = "direct_communication"
	RelIndirectCommunication RelationshipType = "indirect_communication"
	RelStonewalling   RelationshipType = "stonewalling"
	RelCriticism      RelationshipType = "criticism"
	RelDefensiveness  RelationshipType = "defensiveness"
	RelContempt       RelationshipType = "contempt"

	// Temporal/structural
	RelTemporalSequence RelationshipType = "temporal_sequence"
	RelTopicContinuation RelationshipType = "topic_continuation"
	RelTopicShift       RelationshipType = "topic_shift"
	RelEscalationChain  RelationshipType = "escalation_chain"
)

// AllRelationshipTypes enumerates the closed 47-member set.
var AllRelationshipTypes = []RelationshipType{
	RelTrustBuilding, RelTrustErosion, RelTrustRepair, RelTrustTesting, RelTrustBetrayal,
	RelIntimacyDeepening, RelIntimacyWithdrawal, RelVulnerabilitySharing, RelEmotionalMirroring,
	RelConflictEscalation, RelConflictDeescalation, RelConflictAvoidance, RelRepairAttempt, RelRepairAcceptance, RelRepairRejection,
	RelBoundarySetting, RelBoundaryTesting, RelBoundaryViolation, RelBoundaryReinforcement,
	RelPowerAssertion, RelPowerSubmission, RelPowerStruggle, RelPowerBalancing,
	RelSupportSeeking, RelSupportOffering, RelSupportRefusal, RelValidation, RelInvalidation,
	RelGaslighting, RelGuiltTripping, RelLoveBombing, RelSilentTreatment, RelTriangulation, RelIsolationTactic,
	RelAnxiousPursuit, RelAvoidantWithdrawal, RelSecureReassurance, RelProtestBehavior,
	RelDirectCommunication, RelIndirectCommunication, RelStonewalling, RelCriticism, RelDefensiveness, RelContempt,
	RelTemporalSequence, RelTopicContinuation, RelTopicShift, RelEscalationChain,
}

// PatternTemplate is one of the 32 closed subgraph templates representing a
// recurring relational dynamic. See spec.md GLOSSARY, §4.4.
type PatternTemplate string

const (
	PatternEscalationCycle        PatternTemplate = "escalation_cycle"
	PatternRepairCycle            PatternTemplate = "repair_cycle"
	PatternBoundaryTesting        PatternTemplate = "boundary_testing"
	PatternSexualEscalationCycle  PatternTemplate = "sexual_escalation_cycle"
	PatternConsentErosion         PatternTemplate = "consent_erosion"
	PatternPowerStruggleCycle     PatternTemplate = "power_struggle_cycle"
	PatternGaslightingSequence    PatternTemplate = "gaslighting_sequence"
	PatternManipulationSequence   PatternTemplate = "manipulation_sequence"
	PatternIsolationCampaign      PatternTemplate = "isolation_campaign"
	PatternTrustRebuildingArc     PatternTemplate = "trust_rebuilding_arc"
	PatternStonewallSpiral        PatternTemplate = "stonewall_spiral"
	PatternCriticismContemptSpiral PatternTemplate = "criticism_contempt_spiral"
	PatternLoveBombingCycle       PatternTemplate = "love_bombing_cycle"
	PatternAnxiousAvoidantLoop    PatternTemplate = "anxious_avoidant_loop"
	PatternSilentTreatmentCycle   PatternTemplate = "silent_treatment_cycle"
	PatternTriangulationWeb       PatternTemplate = "triangulation_web"
	PatternGuiltTrippingSequence  PatternTemplate = "guilt_tripping_sequence"
	PatternSupportReciprocity     PatternTemplate = "support_reciprocity"
	PatternValidationStarvation   PatternTemplate = "validation_starvation"
	PatternProtestWithdrawCycle   PatternTemplate = "protest_withdraw_cycle"
	PatternRepeatedRepairRejection PatternTemplate = "repeated_repair_rejection"
	PatternVulnerabilityReciprocity PatternTemplate = "vulnerability_reciprocity"
	PatternBoundaryReinforcementArc PatternTemplate = "boundary_reinforcement_arc"
	PatternPowerBalancingArc      PatternTemplate = "power_balancing_arc"
	PatternTopicAvoidancePattern  PatternTemplate = "topic_avoidance_pattern"
	PatternConflictAvoidanceLoop  PatternTemplate = "conflict_avoidance_loop"
	PatternEmotionalMirroringArc  PatternTemplate = "emotional_mirroring_arc"
	PatternDirectnessShiftPattern PatternTemplate = "directness_shift_pattern"
	PatternIntimacyWithdrawalSpiral PatternTemplate = "intimacy_withdrawal_spiral"
	PatternTrustTestingSequence   PatternTemplate = "trust_testing_sequence"
	PatternDefensivenessLoop      PatternTemplate = "defensiveness_loop"
	PatternSecureBaseFormation    PatternTemplate = "secure_base_formation"
)

// AllPatternTemplates enumerates the closed 32-member set.
var AllPatternTemplates = []PatternTemplate{
	PatternEscalationCycle, PatternRepairCycle, PatternBoundaryTesting, PatternSexualEscalationCycle,
	PatternConsentErosion, PatternPowerStruggleCycle, PatternGaslightingSequence, PatternManipulationSequence,
	PatternIsolationCampaign, PatternTrustRebuildingArc, PatternStonewallSpiral, PatternCriticismContemptSpiral,
	PatternLoveBombingCycle, PatternAnxiousAvoidantLoop, PatternSilentTreatmentCycle, PatternTriangulationWeb,
	PatternGuiltTrippingSequence, PatternSupportReciprocity, PatternValidationStarvation, PatternProtestWithdrawCycle,
	PatternRepeatedRepairRejection, PatternVulnerabilityReciprocity, PatternBoundaryReinforcementArc, PatternPowerBalancingArc,
	PatternTopicAvoidancePattern, PatternConflictAvoidanceLoop, PatternEmotionalMirroringArc, PatternDirectnessShiftPattern,
	PatternIntimacyWithdrawalSpiral, PatternTrustTestingSequence, PatternDefensivenessLoop, PatternSecureBaseFormation,
}

// GraphNode is a storage-agnostic node primitive: one per chunk.
type GraphNode struct {
	NodeID    string    `json:"node_id"`
	ConvID    string    `json:"conv_id"`
	ChunkID   string    `json:"chunk_id"`
	Timestamp time.Time `json:"timestamp"`
	Labels    []string  `json:"labels"`
}

// GraphRelationship is a storage-agnostic typed edge between two nodes.
type GraphRelationship struct {
	FromNodeID string              `json:"from_node_id"`
	ToNodeID   string              `json:"to_node_id"`
	Type       RelationshipType    `json:"type"`
	Confidence float64             `json:"confidence"`
	Context    RelationshipContext `json:"context"`
	CreatedAt  time.Time           `json:"created_at"`
}
