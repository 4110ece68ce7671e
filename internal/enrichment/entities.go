package enrichment

import (
	"regexp"
	"time"

	"chatlens/internal/domain"
)

// entityPatterns is pass 1's deterministic regex scan across five
// categories (spec.md §4.2). Grounded on the teacher's
// analysis_service.go pattern of "fixed categories, regex scan, counted
// hits", re-expressed without an LLM call.
var entityPatterns = map[string]*regexp.Regexp{
	"temporal":  regexp.MustCompile(`(?i)\b(today|tomorrow|yesterday|tonight|next week|last night|this morning|in an hour)\b`),
	"emotional": regexp.MustCompile(`(?i)\b(love|hate|angry|sad|happy|afraid|anxious|excited|hurt|jealous)\b`),
	"relational": regexp.MustCompile(`(?i)\b(we|us|together|relationship|partner|boyfriend|girlfriend|husband|wife)\b`),
	"conflict":  regexp.MustCompile(`(?i)\b(fight|fighting|argue|argument|mad at|upset with|blame|fault)\b`),
	"support":   regexp.MustCompile(`(?i)\b(here for you|support you|i understand|it's okay|proud of you)\b`),
}

// RunEntityPass implements Pass 1 — Entities: no external model call, base
// confidence 0.8, emits only categories whose hit count > 0.
func RunEntityPass(text string) domain.PassResult {
	start := time.Now()
	var labels []string
	metadata := make(map[string]interface{})

	for category, re := range entityPatterns {
		matches := re.FindAllString(text, -1)
		if len(matches) > 0 {
			labels = append(labels, category)
			metadata[category+"_count"] = len(matches)
		}
	}

	return domain.PassResult{
		Name:       "entities",
		Labels:     labels,
		Metadata:   metadata,
		Confidence: 0.8,
		Duration:   time.Since(start),
	}
}
