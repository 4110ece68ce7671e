package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"chatlens/internal/domain"
)

// Record is one chunk's embedding for one vector space, ready to index.
type Record struct {
	ChunkID         string
	ConvID          string
	Contact         string
	Text            string
	Embedding       []float32
	LabelsCoarse    []string
	LabelsFineLocal []string
	MessageIDs      []string
	Tier            domain.PrivacyTier
	IndexedAt       time.Time
}

// WriteStats is the per-space outcome of indexing one batch, per spec.md
// §4.4 "per-space statistics are returned".
type WriteStats struct {
	Space   Space
	Written int
	Skipped int
	Err     error
}

// tableNames maps each space to its pgvector-backed table. Each table
// shares the same shape; only the embedding dimension and privacy-tier
// admission differ (see SpaceConfig).
var tableNames = map[Space]string{
	SpaceSemantic:      "vector_semantic",
	SpacePsychological: "vector_psychological",
	SpaceTemporal:      "vector_temporal",
	SpaceStructural:    "vector_structural",
}

// Store is the pgvector-backed multi-space index. One Store serves every
// contact; rows are partitioned by the contact column. Grounded on the
// teacher's PgMemoryRepository (memory_repo.go): a pgxpool.Pool held
// directly, parameterized SQL, no ORM.
type Store struct {
	pool    *pgxpool.Pool
	configs map[Space]SpaceConfig
}

// NewStore builds a Store with the default space configuration.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, configs: DefaultSpaceConfigs()}
}

// IndexBatch writes records into every space whose tier admission allows
// the batch's effective (most restrictive) privacy tier. Each space is
// written in its own transaction: a failure in one space does not prevent
// the others from committing ("writes are transactional per space per
// batch — partial failures roll forward", spec.md §4.4).
func (s *Store) IndexBatch(ctx context.Context, contact string, records []Record) []WriteStats {
	if len(records) == 0 {
		return nil
	}
	tiers := make([]domain.PrivacyTier, len(records))
	for i, r := range records {
		tiers[i] = r.Tier
	}
	batchTier := MostRestrictiveTier(tiers)

	stats := make([]WriteStats, 0, len(AllSpaces))
	for _, space := range AllSpaces {
		cfg := s.configs[space]
		if !cfg.Admits(batchTier) {
			stats = append(stats, WriteStats{Space: space, Skipped: len(records)})
			continue
		}
		stats = append(stats, s.writeSpace(ctx, space, contact, records))
	}
	return stats
}

func (s *Store) writeSpace(ctx context.Context, space Space, contact string, records []Record) WriteStats {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return WriteStats{Space: space, Skipped: len(records), Err: fmt.Errorf("begin tx for %s: %w", space, err)}
	}
	defer tx.Rollback(ctx)

	table := tableNames[space]
	query := fmt.Sprintf(`
		INSERT INTO %s (chunk_id, conv_id, contact, text, embedding, labels_coarse, labels_fine_local, message_ids, privacy_tier, indexed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (chunk_id) DO UPDATE SET
			text = EXCLUDED.text, embedding = EXCLUDED.embedding,
			labels_coarse = EXCLUDED.labels_coarse, labels_fine_local = EXCLUDED.labels_fine_local,
			privacy_tier = EXCLUDED.privacy_tier, indexed_at = EXCLUDED.indexed_at
	`, table)

	written := 0
	for _, r := range records {
		indexedAt := r.IndexedAt
		if indexedAt.IsZero() {
			indexedAt = time.Now().UTC()
		}
		_, err := tx.Exec(ctx, query,
			r.ChunkID, r.ConvID, contact, r.Text, pgvector.NewVector(r.Embedding),
			r.LabelsCoarse, r.LabelsFineLocal, r.MessageIDs, string(r.Tier), indexedAt,
		)
		if err != nil {
			return WriteStats{Space: space, Written: written, Skipped: len(records) - written, Err: fmt.Errorf("write %s: %w", space, err)}
		}
		written++
	}

	if err := tx.Commit(ctx); err != nil {
		return WriteStats{Space: space, Skipped: len(records), Err: fmt.Errorf("commit %s: %w", space, err)}
	}
	return WriteStats{Space: space, Written: written}
}
