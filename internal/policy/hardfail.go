package policy

import "regexp"

// ThreatLevel is the closed ordering used by the hard-fail tier; values
// compare by their declared order (Safe < Suspicious < Probable < Confirmed).
type ThreatLevel int

const (
	Safe ThreatLevel = iota
	Suspicious
	Probable
	Confirmed
)

// HardFailClass names one of the four pattern sets spec.md §4.1 requires:
// CSAM indicators, credible violence, trafficking-style distribution
// language, and identifiable financial-crime planning.
type HardFailClass string

const (
	ClassCSAM            HardFailClass = "csam_indicator"
	ClassViolence        HardFailClass = "credible_violence"
	ClassTrafficking     HardFailClass = "trafficking_distribution"
	ClassFinancialCrime  HardFailClass = "financial_crime_planning"
)

type hardFailPattern struct {
	re    *regexp.Regexp
	class HardFailClass
	level ThreatLevel
}

// HardFailDetector scans for content that must block processing outright.
// Patterns here are deliberately coarse keyword/phrase gates, not a
// full classifier — spec.md §4.1 allows an optional contextual classifier
// to raise confidence but never to lower `confirmed` below `probable`.
type HardFailDetector struct {
	patterns []hardFailPattern
}

// NewHardFailDetector builds the detector with its closed pattern table.
func NewHardFailDetector() *HardFailDetector {
	specs := []struct {
		expr  string
		class HardFailClass
		level ThreatLevel
	}{
		{`(?i)\b(child\s+sexual|csam|minor\s+explicit)\b`, ClassCSAM, Confirmed},
		{`(?i)\b(kill\s+you|going\s+to\s+shoot|bring\s+the\s+gun\s+to)\b`, ClassViolence, Probable},
		{`(?i)\b(buy\s+a\s+weapon|target\s+list|where\s+(s?he|they)\s+lives)\b`, ClassViolence, Suspicious},
		{`(?i)\b(kilo\s+of|traffick|move\s+product\s+across)\b`, ClassTrafficking, Probable},
		{`(?i)\b(launder|wire\s+the\s+funds\s+offshore|structuring\s+deposits)\b`, ClassFinancialCrime, Suspicious},
	}
	d := &HardFailDetector{}
	for _, s := range specs {
		d.patterns = append(d.patterns, hardFailPattern{re: regexp.MustCompile(s.expr), class: s.class, level: s.level})
	}
	return d
}

// HardFailResult is the single highest-severity finding for a text, or the
// zero value (Level Safe) if nothing matched.
type HardFailResult struct {
	Triggered bool
	Class     HardFailClass
	Level     ThreatLevel
}

// Scan returns the most severe hard-fail finding in text, per spec.md
// §4.1's "may only raise, not lower, confirmed below probable" rule: among
// multiple matches the highest level wins.
func (d *HardFailDetector) Scan(text string) HardFailResult {
	result := HardFailResult{Level: Safe}
	for _, p := range d.patterns {
		if !p.re.MatchString(text) {
			continue
		}
		if p.level > result.Level {
			result = HardFailResult{Triggered: true, Class: p.class, Level: p.level}
		}
	}
	return result
}

// BlocksAll, BlocksCloud and ShouldLog report how level treats each
// boundary, per the
// spec.md §9 resolution: confirmed blocks all, probable blocks cloud-bound
// data only, suspicious is logged only.
func (l ThreatLevel) BlocksAll() bool   { return l == Confirmed }
func (l ThreatLevel) BlocksCloud() bool { return l >= Probable }
func (l ThreatLevel) ShouldLog() bool   { return l >= Suspicious }
