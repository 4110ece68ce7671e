package graph

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"chatlens/internal/domain"
)

// Store persists the psychology graph as two adjacency tables: graph_nodes
// (one row per chunk) and graph_edges (typed relationships between two
// nodes). Grounded on the teacher's PgCharacterRepository
// (character_repo.go): a pgxpool.Pool held directly, explicit Create/List
// methods, parameterized SQL, no ORM. Postgres substitutes for the
// original_source's Neo4j backend (see package doc).
type Store struct {
	pool *pgxpool.Pool
}

// NewStore builds a Store over an existing connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// UpsertNode inserts or refreshes one chunk's node row.
func (s *Store) UpsertNode(ctx context.Context, contact string, node domain.GraphNode) error {
	const query = `
		INSERT INTO graph_nodes (node_id, contact, conv_id, chunk_id, ts, labels)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (node_id) DO UPDATE SET labels = EXCLUDED.labels, ts = EXCLUDED.ts
	`
	_, err := s.pool.Exec(ctx, query, node.NodeID, contact, node.ConvID, node.ChunkID, node.Timestamp, node.Labels)
	if err != nil {
		return fmt.Errorf("upsert node %s: %w", node.NodeID, err)
	}
	return nil
}

// AddRelationship inserts one typed edge. Multiple edges of different
// types may exist between the same two nodes.
func (s *Store) AddRelationship(ctx context.Context, contact string, rel domain.GraphRelationship) error {
	const query = `
		INSERT INTO graph_edges (contact, from_node_id, to_node_id, rel_type, confidence, context, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.pool.Exec(ctx, query, contact, rel.FromNodeID, rel.ToNodeID, string(rel.Type), rel.Confidence, string(rel.Context), rel.CreatedAt)
	if err != nil {
		return fmt.Errorf("add relationship %s->%s: %w", rel.FromNodeID, rel.ToNodeID, err)
	}
	return nil
}

// NodesByContact lists every node for a contact, ordered chronologically —
// the order pattern-template and temporal-evolution queries walk over.
func (s *Store) NodesByContact(ctx context.Context, contact string) ([]domain.GraphNode, error) {
	const query = `
		SELECT node_id, conv_id, chunk_id, ts, labels
		FROM graph_nodes
		WHERE contact = $1
		ORDER BY ts ASC
	`
	rows, err := s.pool.Query(ctx, query, contact)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.GraphNode
	for rows.Next() {
		var n domain.GraphNode
		if err := rows.Scan(&n.NodeID, &n.ConvID, &n.ChunkID, &n.Timestamp, &n.Labels); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// RelationshipsByContact lists every edge for a contact, ordered
// chronologically by creation time — the sequence pattern-template
// detection walks as a bounded-length path.
func (s *Store) RelationshipsByContact(ctx context.Context, contact string) ([]domain.GraphRelationship, error) {
	const query = `
		SELECT from_node_id, to_node_id, rel_type, confidence, context, created_at
		FROM graph_edges
		WHERE contact = $1
		ORDER BY created_at ASC
	`
	rows, err := s.pool.Query(ctx, query, contact)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.GraphRelationship
	for rows.Next() {
		var r domain.GraphRelationship
		var relType, relContext string
		if err := rows.Scan(&r.FromNodeID, &r.ToNodeID, &relType, &r.Confidence, &relContext, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Type = domain.RelationshipType(relType)
		r.Context = domain.RelationshipContext(relContext)
		out = append(out, r)
	}
	return out, rows.Err()
}

// RelationshipsBetween returns every edge recorded between two specific
// nodes, in either direction.
func (s *Store) RelationshipsBetween(ctx context.Context, contact, nodeA, nodeB string) ([]domain.GraphRelationship, error) {
	const query = `
		SELECT from_node_id, to_node_id, rel_type, confidence, context, created_at
		FROM graph_edges
		WHERE contact = $1 AND ((from_node_id = $2 AND to_node_id = $3) OR (from_node_id = $3 AND to_node_id = $2))
		ORDER BY created_at ASC
	`
	rows, err := s.pool.Query(ctx, query, contact, nodeA, nodeB)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.GraphRelationship
	for rows.Next() {
		var r domain.GraphRelationship
		var relType, relContext string
		if err := rows.Scan(&r.FromNodeID, &r.ToNodeID, &relType, &r.Confidence, &relContext, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Type = domain.RelationshipType(relType)
		r.Context = domain.RelationshipContext(relContext)
		out = append(out, r)
	}
	return out, rows.Err()
}
