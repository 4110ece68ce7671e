package bridge

// ValidationResult is the outcome of running the multi-layer privacy
// validator over a hierarchical context (spec.md §4.3).
type ValidationResult struct {
	Passed     bool     `json:"passed"`
	Violations []string `json:"violations"`
	RiskScore  float64  `json:"risk_score"`
}

// maxPrivacyTokens and maxSensitiveFlags bound the ContextSummary layer:
// past these thresholds the abstraction is judged specific enough to risk
// reconstruction.
const (
	maxPrivacyTokens  = 10
	maxSensitiveFlags = 3
)

// Validator runs the three-layer check spec.md §4.3 describes: the
// summary layer, the encrypted-vector layer, and cross-layer consistency
// between fine labels, the summary's booleans, and its token count.
// Grounded on
// original_source/src/chatx/privacy/hierarchical_context.py's
// MultiLayerPrivacyValidator.
type Validator struct{}

// NewValidator builds a stateless Validator.
func NewValidator() *Validator { return &Validator{} }

// Validate checks summary and, if present, the encrypted vector, against
// fineLabels drawn from the full-detail local enrichment.
func (v *Validator) Validate(fineLabels []string, summary ContextSummary, encrypted *EncryptedContextVector) ValidationResult {
	var violations []string
	violations = append(violations, v.validateSummary(summary)...)
	if encrypted != nil {
		violations = append(violations, v.validateEncrypted(*encrypted)...)
	}
	violations = append(violations, v.validateCrossLayer(fineLabels, summary)...)

	return ValidationResult{
		Passed:     len(violations) == 0,
		Violations: violations,
		RiskScore:  float64(len(violations)) * 0.1,
	}
}

func (v *Validator) validateSummary(s ContextSummary) []string {
	var violations []string

	if len(s.PrivacyTokens) > maxPrivacyTokens {
		violations = append(violations, "excessive privacy tokens may enable reconstruction")
	}

	flagCount := 0
	for _, flag := range []bool{
		s.SubstanceContextPresent, s.IntimateContextPresent,
		s.BoundaryDiscussionPresent, s.TraumaIndicatorsPresent,
	} {
		if flag {
			flagCount++
		}
	}
	if flagCount > maxSensitiveFlags {
		violations = append(violations, "too many sensitive context flags active")
	}

	for _, score := range []float64{
		s.EmotionalIntensityScore, s.ConflictEscalationScore,
		s.IntimacyProgressionScore, s.TrustStabilityScore,
	} {
		if score < 0.0 || score > 1.0 {
			violations = append(violations, "privacy scores outside valid range [0,1]")
			break
		}
	}

	return violations
}

func (v *Validator) validateEncrypted(e EncryptedContextVector) []string {
	var violations []string
	if len(e.EncryptedSemanticVector) == 0 {
		violations = append(violations, "missing encrypted semantic vector")
	}
	if e.EncryptionKeyID == "" {
		violations = append(violations, "missing encryption key id")
	}
	if e.TemporalPosition < 0 || e.TemporalPosition > 23 {
		violations = append(violations, "invalid temporal position")
	}
	return violations
}

func (v *Validator) validateCrossLayer(fineLabels []string, s ContextSummary) []string {
	var violations []string

	substanceInFine := containsSubstring(fineLabels, "substance")
	if substanceInFine && !s.SubstanceContextPresent {
		violations = append(violations, "substance context inconsistency between layers")
	}

	if len(s.PrivacyTokens) > len(fineLabels) {
		violations = append(violations, "privacy tokens exceed fine labels: potential over-abstraction")
	}

	return violations
}
