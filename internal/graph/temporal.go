package graph

import (
	"time"

	"chatlens/internal/domain"
)

// boundaryTypes are relationship types counted as boundary events for the
// temporal-evolution health indicator.
var boundaryTypes = map[domain.RelationshipType]bool{
	domain.RelBoundarySetting:   true,
	domain.RelBoundaryTesting:   true,
	domain.RelBoundaryViolation: true,
}

// repairTypes are relationship types counted as repair events.
var repairTypes = map[domain.RelationshipType]bool{
	domain.RelRepairAttempt:   true,
	domain.RelRepairAcceptance: true,
	domain.RelTrustRepair:     true,
}

// diversityVariabilityThreshold is the minimum number of distinct
// relationship types observed within the window for the pattern-diversity
// verdict to read "variable" rather than "stable".
const diversityVariabilityThreshold = 4

// TemporalEvolution is the time-windowed relationship-health summary,
// per spec.md §4.4: "aggregate counts of boundary events vs. repair
// events, compute the boundary-to-repair ratio ... extract a stable or
// variable pattern-diversity verdict." Grounded on
// original_source/src/chatx/storage/graph.py's evolution aggregation,
// re-expressed over the Postgres edge table rather than a Cypher
// aggregation query.
type TemporalEvolution struct {
	WindowStart       time.Time
	WindowEnd         time.Time
	BoundaryEvents    int
	RepairEvents      int
	BoundaryRepairRatio float64
	DistinctTypes     int
	DiversityVerdict  string // "stable" or "variable"
}

// ComputeTemporalEvolution aggregates boundary/repair counts and a
// pattern-diversity verdict over the edges falling within [from, to).
// A zero repair count with nonzero boundary events yields a ratio of the
// boundary count itself (an unmet-repair signal, not a divide-by-zero).
func ComputeTemporalEvolution(edges []domain.GraphRelationship, from, to time.Time) TemporalEvolution {
	evo := TemporalEvolution{WindowStart: from, WindowEnd: to}

	distinct := make(map[domain.RelationshipType]bool)
	for _, e := range edges {
		if e.CreatedAt.Before(from) || !e.CreatedAt.Before(to) {
			continue
		}
		distinct[e.Type] = true
		if boundaryTypes[e.Type] {
			evo.BoundaryEvents++
		}
		if repairTypes[e.Type] {
			evo.RepairEvents++
		}
	}

	evo.DistinctTypes = len(distinct)
	switch {
	case evo.RepairEvents > 0:
		evo.BoundaryRepairRatio = float64(evo.BoundaryEvents) / float64(evo.RepairEvents)
	case evo.BoundaryEvents > 0:
		evo.BoundaryRepairRatio = float64(evo.BoundaryEvents)
	default:
		evo.BoundaryRepairRatio = 0
	}

	if evo.DistinctTypes >= diversityVariabilityThreshold {
		evo.DiversityVerdict = "variable"
	} else {
		evo.DiversityVerdict = "stable"
	}
	return evo
}
