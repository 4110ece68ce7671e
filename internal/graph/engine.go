package graph

import (
	"context"
	"fmt"
	"time"

	"chatlens/internal/domain"
)

// Engine wires the mapping rules, the pattern-template catalog, and the
// Postgres-backed Store into the single entry point the enrichment
// pipeline drives: record a chunk's node, link it to the chronologically
// preceding chunk by temporal sequence, and map any non-temporal
// relationships its labels suggest.
type Engine struct {
	store *Store
	rules []MappingRule
}

// NewEngine builds an Engine over an existing Store with the bundled
// mapping rule set.
func NewEngine(store *Store) *Engine {
	return &Engine{store: store, rules: DefaultMappingRules()}
}

// RecordChunk upserts a chunk's node and, if prev is non-nil, adds the
// temporal-sequence edge plus any label-derived relationships between prev
// and this chunk (spec.md §4.4: "relationships between adjacent chunks
// (temporal sequence) plus any non-temporal relationships detected from
// label pairs").
func (e *Engine) RecordChunk(ctx context.Context, contact string, node domain.GraphNode, prev *domain.GraphNode, prevLabels []string) error {
	if err := e.store.UpsertNode(ctx, contact, node); err != nil {
		return err
	}
	if prev == nil {
		return nil
	}

	if err := e.store.AddRelationship(ctx, contact, domain.GraphRelationship{
		FromNodeID: prev.NodeID,
		ToNodeID:   node.NodeID,
		Type:       domain.RelTemporalSequence,
		Confidence: 1.0,
		Context:    domain.RelationshipUnknown,
		CreatedAt:  node.Timestamp,
	}); err != nil {
		return fmt.Errorf("add temporal edge: %w", err)
	}

	relContext := domain.DetectRelationshipContext(append(append([]string{}, prevLabels...), node.Labels...))
	temporalSequence := !prev.Timestamp.After(node.Timestamp)
	mapped := MapLabelsToRelationships(e.rules, prevLabels, node.Labels, relContext, temporalSequence)
	for _, m := range mapped {
		if err := e.store.AddRelationship(ctx, contact, domain.GraphRelationship{
			FromNodeID: prev.NodeID,
			ToNodeID:   node.NodeID,
			Type:       m.Type,
			Confidence: m.Confidence,
			Context:    relContext,
			CreatedAt:  node.Timestamp,
		}); err != nil {
			return fmt.Errorf("add mapped edge %s: %w", m.Type, err)
		}
	}
	return nil
}

// Patterns detects every bundled pattern template over a contact's full
// chronological edge history, using the default sliding-window size.
func (e *Engine) Patterns(ctx context.Context, contact string) ([]DetectedPattern, error) {
	edges, err := e.store.RelationshipsByContact(ctx, contact)
	if err != nil {
		return nil, fmt.Errorf("load edges: %w", err)
	}
	return DetectPatterns(edges, 0), nil
}

// Evolution computes the temporal-evolution health indicator over
// [from, to) for a contact.
func (e *Engine) Evolution(ctx context.Context, contact string, from, to time.Time) (TemporalEvolution, error) {
	edges, err := e.store.RelationshipsByContact(ctx, contact)
	if err != nil {
		return TemporalEvolution{}, fmt.Errorf("load edges: %w", err)
	}
	return ComputeTemporalEvolution(edges, from, to), nil
}
