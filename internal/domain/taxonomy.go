package domain

import "strings"

// CoOccurrenceRule expands a label set: when every label in Required is
// present, every label in Implied is unioned in. See spec.md §3.
type CoOccurrenceRule struct {
	Required []string
	Implied  []string
}

// LabelTaxonomy is the static, startup-loaded configuration partitioning
// labels into a cloud-safe coarse universe and a local-only fine universe,
// with synonym normalization, co-occurrence expansion, and polarity scores.
type LabelTaxonomy struct {
	Coarse  map[string]bool
	Fine    map[string]bool
	Synonyms map[string]string // surface form (lowercased) -> canonical label
	CoOccurrence []CoOccurrenceRule
	Polarity map[string]float64
}

// DefaultLabelTaxonomy returns the bundled taxonomy: ~18 coarse root
// categories and a fine, sensitive-specifics universe, disjoint by
// construction.
func DefaultLabelTaxonomy() *LabelTaxonomy {
	coarse := []string{
		"stress", "intimacy", "conflict", "support", "humor", "gratitude",
		"planning", "logistics", "nostalgia", "celebration", "apology",
		"reassurance", "curiosity", "frustration", "affection", "boundary",
		"trust_building", "distance",
	}
	fine := []string{
		"sexuality", "substances", "mental_health_specific", "trauma_indicator",
		"self_harm_indicator", "financial_distress_specific", "infidelity_indicator",
		"legal_trouble_specific", "medical_condition_specific",
	}

	t := &LabelTaxonomy{
		Coarse:   make(map[string]bool, len(coarse)),
		Fine:     make(map[string]bool, len(fine)),
		Synonyms: make(map[string]string),
		Polarity: make(map[string]float64),
	}
	for _, c := range coarse {
		t.Coarse[c] = true
		t.Polarity[c] = 0
	}
	for _, f := range fine {
		t.Fine[f] = true
		t.Polarity[f] = 0
	}

	// A representative synonym map; surface forms normalize to canonical labels.
	synonyms := map[string]string{
		"stressed":    "stress",
		"overwhelmed": "stress",
		"anxious":     "stress",
		"intimate":    "intimacy",
		"close":       "intimacy",
		"fighting":    "conflict",
		"argument":    "conflict",
		"supportive":  "support",
		"funny":       "humor",
		"thankful":    "gratitude",
		"drugs":       "substances",
		"drinking":    "substances",
		"therapy":     "mental_health_specific",
		"depressed":   "mental_health_specific",
		"cheating":    "infidelity_indicator",
	}
	for surface, canon := range synonyms {
		t.Synonyms[surface] = canon
	}

	t.CoOccurrence = []CoOccurrenceRule{
		{Required: []string{"conflict", "distance"}, Implied: []string{"boundary"}},
		{Required: []string{"intimacy", "trust_building"}, Implied: []string{"affection"}},
	}

	// Polarity: negative labels skew toward -1, positive toward +1.
	for _, neg := range []string{"conflict", "frustration", "stress", "distance", "trauma_indicator", "self_harm_indicator"} {
		t.Polarity[neg] = -0.7
	}
	for _, pos := range []string{"affection", "gratitude", "celebration", "support", "trust_building", "humor"} {
		t.Polarity[pos] = 0.7
	}

	return t
}

// Normalize maps a raw label through the synonym table and lowercases it.
// Idempotent: Normalize(Normalize(l)) == Normalize(l).
func (t *LabelTaxonomy) Normalize(label string) string {
	l := strings.ToLower(strings.TrimSpace(label))
	if canon, ok := t.Synonyms[l]; ok {
		return canon
	}
	return l
}

// IsFine reports whether a (already-normalized) label belongs to the
// fine-only universe.
func (t *LabelTaxonomy) IsFine(label string) bool {
	return t.Fine[label]
}

// IsCoarse reports whether a (already-normalized) label belongs to the
// cloud-safe coarse universe.
func (t *LabelTaxonomy) IsCoarse(label string) bool {
	return t.Coarse[label]
}

// Known reports whether a normalized label is recognized at all (coarse or
// fine). Unknown labels are dropped by the validation step in pass 3.
func (t *LabelTaxonomy) Known(label string) bool {
	return t.Coarse[label] || t.Fine[label]
}

// ExpandCoOccurrence unions in implied labels for every rule whose required
// set is a subset of the given label set.
func (t *LabelTaxonomy) ExpandCoOccurrence(labels []string) []string {
	present := make(map[string]bool, len(labels))
	for _, l := range labels {
		present[l] = true
	}
	for _, rule := range t.CoOccurrence {
		allPresent := true
		for _, req := range rule.Required {
			if !present[req] {
				allPresent = false
				break
			}
		}
		if allPresent {
			for _, imp := range rule.Implied {
				present[imp] = true
			}
		}
	}
	out := make([]string, 0, len(present))
	for l := range present {
		out = append(out, l)
	}
	return out
}

// SplitCoarseFine partitions a normalized, validated label set back into
// coarse and fine lists, per the taxonomy membership.
func (t *LabelTaxonomy) SplitCoarseFine(labels []string) (coarse, fine []string) {
	for _, l := range labels {
		switch {
		case t.IsFine(l):
			fine = append(fine, l)
		case t.IsCoarse(l):
			coarse = append(coarse, l)
		}
	}
	return coarse, fine
}
