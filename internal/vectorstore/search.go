package vectorstore

import (
	"context"
	"fmt"
	"sort"

	pgvector "github.com/pgvector/pgvector-go"

	"chatlens/internal/domain"
)

// SearchResult is one chunk's fused multi-space match, per spec.md §4.4:
// the per-space score, the fused combined score, and its relative
// contribution per space.
type SearchResult struct {
	ChunkID             string
	Text                string
	MessageIDs          []string
	PerSpaceScore       map[Space]float64
	PerSpaceContribution map[Space]float64
	CombinedScore       float64
	PrivacyTier         domain.PrivacyTier
}

type candidateRow struct {
	chunkID         string
	text            string
	messageIDs      []string
	labelsCoarse    []string
	labelsFineLocal []string
	score           float64
}

// Search performs weighted-fusion multi-vector search: per space, k'=2k
// candidates are retrieved by pgvector cosine distance; candidates are
// fused by weighted sum of per-space similarity and truncated to k,
// ordered by fused score with ties broken by chunk_id. weights may be nil
// to use DefaultFusionWeights. requireTier, if non-empty, restricts
// candidates to that exact privacy tier.
func (s *Store) Search(ctx context.Context, contact string, queryEmbeddings map[Space][]float32, k int, weights map[Space]float64, requireTier domain.PrivacyTier) ([]SearchResult, error) {
	if k <= 0 {
		k = 10
	}
	if weights == nil {
		weights = DefaultFusionWeights()
	}

	perSpaceRows := make(map[Space][]candidateRow, len(queryEmbeddings))
	for space, embedding := range queryEmbeddings {
		rows, err := s.searchSpace(ctx, space, contact, embedding, k*2, requireTier)
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", space, err)
		}
		perSpaceRows[space] = rows
	}

	return fuseCandidates(perSpaceRows, weights, k), nil
}

// fuseCandidates merges per-space candidate rows into weighted-fusion
// results, sorted by combined score descending with ties broken by
// chunk_id (spec.md §4.4, §5 "Search results are totally ordered by fused
// score with ties broken by chunk_id"). Pure function, factored out of
// Search for direct unit testing without a database.
func fuseCandidates(perSpaceRows map[Space][]candidateRow, weights map[Space]float64, k int) []SearchResult {
	merged := make(map[string]*SearchResult)
	labelsByChunk := make(map[string][2][]string) // chunk_id -> [coarse, fine]

	for space, rows := range perSpaceRows {
		for _, row := range rows {
			res, ok := merged[row.chunkID]
			if !ok {
				res = &SearchResult{
					ChunkID:              row.chunkID,
					Text:                 row.text,
					MessageIDs:           row.messageIDs,
					PerSpaceScore:        make(map[Space]float64),
					PerSpaceContribution: make(map[Space]float64),
				}
				merged[row.chunkID] = res
				labelsByChunk[row.chunkID] = [2][]string{row.labelsCoarse, row.labelsFineLocal}
			}
			res.PerSpaceScore[space] = row.score
		}
	}

	out := make([]SearchResult, 0, len(merged))
	for chunkID, res := range merged {
		var combined, totalWeight float64
		for space, score := range res.PerSpaceScore {
			w := weights[space]
			contribution := score * w
			combined += contribution
			totalWeight += w
			res.PerSpaceContribution[space] = contribution
		}
		if totalWeight > 0 {
			combined /= totalWeight
		}
		res.CombinedScore = combined
		res.PrivacyTier = inferPrivacyTier(labelsByChunk[chunkID][0], labelsByChunk[chunkID][1])
		out = append(out, *res)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CombinedScore != out[j].CombinedScore {
			return out[i].CombinedScore > out[j].CombinedScore
		}
		return out[i].ChunkID < out[j].ChunkID
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

func (s *Store) searchSpace(ctx context.Context, space Space, contact string, embedding []float32, limit int, requireTier domain.PrivacyTier) ([]candidateRow, error) {
	table := tableNames[space]
	query := fmt.Sprintf(`
		SELECT chunk_id, text, message_ids, labels_coarse, labels_fine_local,
		       1 - (embedding <=> $1) AS score
		FROM %s
		WHERE contact = $2 AND ($3 = '' OR privacy_tier = $3)
		ORDER BY embedding <=> $1
		LIMIT $4
	`, table)

	rows, err := s.pool.Query(ctx, query, pgvector.NewVector(embedding), contact, string(requireTier), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []candidateRow
	for rows.Next() {
		var c candidateRow
		if err := rows.Scan(&c.chunkID, &c.text, &c.messageIDs, &c.labelsCoarse, &c.labelsFineLocal, &c.score); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// inferPrivacyTier reports a result's privacy tier from its stored labels:
// any fine-local label present means the record is only ever visible
// local_only; otherwise any coarse label makes it cloud_safe, and a record
// with no labels at all is pattern_only.
func inferPrivacyTier(coarse, fine []string) domain.PrivacyTier {
	if len(fine) > 0 {
		return domain.TierLocalOnly
	}
	if len(coarse) > 0 {
		return domain.TierCloudSafe
	}
	return domain.TierPatternOnly
}
