// Package policy implements the Policy Shield: PII detection, redaction,
// pseudonymization, coverage accounting, and differential-privacy
// aggregation that gates every cross-boundary data movement (spec.md §4.1).
//
// Detection follows the two-tier design grounded on
// other_examples/355cb2d3_laplaque-ai-anonymizing-proxy's anonymizer.go: a
// compiled regex pattern table carrying a per-pattern confidence, plus a
// separate hard-fail tier for content that must block processing outright.
package policy

import "regexp"

// PIIKind is the closed token-category vocabulary of spec.md §6's
// privacy-token grammar.
type PIIKind string

const (
	KindEmail    PIIKind = "EMAIL"
	KindPhone    PIIKind = "PHONE"
	KindURL      PIIKind = "URL"
	KindCC       PIIKind = "CC"
	KindSSN      PIIKind = "SSN"
	KindAddress  PIIKind = "ADDRESS"
	KindName     PIIKind = "NAME"
	KindGeneral  PIIKind = "GENERAL"
)

// Detection is a single pattern-tier match: the kind, the matched span
// bounds within the original text, the surface form, and the pattern's
// base confidence.
type Detection struct {
	Kind          PIIKind
	Start, End    int
	Surface       string
	ConfidenceBase float64
}

// piiPattern pairs a compiled regex with its kind and base confidence, in
// the same shape as the grounding anonymizer's `pattern` struct.
type piiPattern struct {
	re         *regexp.Regexp
	kind       PIIKind
	confidence float64
}

// Detector holds the compiled pattern table. detectNames toggles the
// common-name pass (spec.md §4.1 "when enabled").
type Detector struct {
	patterns    []piiPattern
	detectNames bool
	names       map[string]bool
}

// NewDetector builds a Detector. namesList is a bundled first/last-name
// list; pass nil to disable name detection regardless of detectNames.
func NewDetector(detectNames bool, namesList []string) *Detector {
	d := &Detector{detectNames: detectNames && len(namesList) > 0}
	if d.detectNames {
		d.names = make(map[string]bool, len(namesList))
		for _, n := range namesList {
			d.names[n] = true
		}
	}
	d.compile()
	return d
}

func (d *Detector) compile() {
	specs := []struct {
		expr       string
		kind       PIIKind
		confidence float64
	}{
		{`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`, KindEmail, 0.95},
		{`\bhttps?://[^\s]+\b`, KindURL, 0.95},
		{`\b(?:\d{3}-?\d{2}-?\d{4}|\d{9})\b`, KindSSN, 0.85},
		{`\b(?:\d{4}[\-\s]?){3}\d{4}\b`, KindCC, 0.85},
		{`(?i)\d+\s+[A-Za-z\s]+(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr|Court|Ct)\b`, KindAddress, 0.75},
		{`(\+?1?[\-.\s]?)?\(?([0-9]{3})\)?[\-.\s]?([0-9]{3})[\-.\s]?([0-9]{4})`, KindPhone, 0.70},
	}
	for _, s := range specs {
		d.patterns = append(d.patterns, piiPattern{re: regexp.MustCompile(s.expr), kind: s.kind, confidence: s.confidence})
	}
}

// Detect scans text and returns every pattern-tier detection, sorted in
// the order their patterns were registered then by position. Overlapping
// matches from different patterns are both reported; Redact resolves
// overlap by rightmost-first replacement.
func (d *Detector) Detect(text string) []Detection {
	var out []Detection
	for _, p := range d.patterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			out = append(out, Detection{
				Kind:           p.kind,
				Start:          loc[0],
				End:            loc[1],
				Surface:        text[loc[0]:loc[1]],
				ConfidenceBase: p.confidence,
			})
		}
	}
	if d.detectNames {
		out = append(out, d.detectKnownNames(text)...)
	}
	return out
}

var wordBoundary = regexp.MustCompile(`[A-Za-z']+`)

func (d *Detector) detectKnownNames(text string) []Detection {
	var out []Detection
	for _, loc := range wordBoundary.FindAllStringIndex(text, -1) {
		word := text[loc[0]:loc[1]]
		if d.names[word] {
			out = append(out, Detection{
				Kind:           KindName,
				Start:          loc[0],
				End:            loc[1],
				Surface:        word,
				ConfidenceBase: 0.6,
			})
		}
	}
	return out
}
