package policy

import "errors"

// ErrHardFailContent is the sentinel returned when redact_chunk_text
// encounters a confirmed-level hard-fail class (spec.md §7
// HardFailContent). Wrapped with class/chunk context at the call site.
var ErrHardFailContent = errors.New("hard-fail content detected")

// ErrBudgetExhausted is returned when a DP query would exceed the
// caller's epsilon cap (spec.md §7 BudgetExhausted).
var ErrBudgetExhausted = errors.New("differential privacy budget exhausted")

// Policy is the redaction/DP configuration in effect for a run, built from
// config.Config's Policy* fields.
type Policy struct {
	Threshold        float64
	StrictMode       bool
	BlockHardFail    bool
	Pseudonymize     bool
	DetectNames      bool
	OpaqueTokens     bool
	EnableDP         bool
	DPEpsilon        float64
	DPDelta          float64
}

// EffectiveThreshold returns 0.999 under strict mode, else the configured
// threshold (default 0.995), per spec.md §4.1.
func (p Policy) EffectiveThreshold() float64 {
	if p.StrictMode {
		return 0.999
	}
	if p.Threshold > 0 {
		return p.Threshold
	}
	return 0.995
}
