package domain

// RelationshipContext classifies the kind of relationship a conversation's
// labels suggest. See spec.md §3, §GLOSSARY.
type RelationshipContext string

const (
	RelationshipRomantic     RelationshipContext = "romantic"
	RelationshipSexual       RelationshipContext = "sexual"
	RelationshipFamily       RelationshipContext = "family"
	RelationshipFriend       RelationshipContext = "friend"
	RelationshipProfessional RelationshipContext = "professional"
	RelationshipUnknown      RelationshipContext = "unknown"
)

// contextDetectorSets maps each relationship context to the labels whose
// presence is evidence for it. The first context whose set has the largest
// overlap with the given labels wins; ties resolve to RelationshipUnknown.
var contextDetectorSets = map[RelationshipContext][]string{
	RelationshipRomantic:     {"intimacy", "affection", "trust_building", "infidelity_indicator"},
	RelationshipSexual:       {"sexuality", "intimacy"},
	RelationshipFamily:       {"nostalgia", "support", "boundary"},
	RelationshipFriend:       {"humor", "support", "celebration"},
	RelationshipProfessional: {"planning", "logistics"},
}

// DetectRelationshipContext picks the relationship context with the largest
// label overlap; ties and empty overlaps resolve to RelationshipUnknown.
func DetectRelationshipContext(labels []string) RelationshipContext {
	present := make(map[string]bool, len(labels))
	for _, l := range labels {
		present[l] = true
	}

	best := RelationshipUnknown
	bestScore := 0
	tied := false
	for ctx, set := range contextDetectorSets {
		score := 0
		for _, l := range set {
			if present[l] {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = ctx
			tied = false
		} else if score == bestScore && score > 0 {
			tied = true
		}
	}
	if bestScore == 0 || tied {
		return RelationshipUnknown
	}
	return best
}
