package vectorstore

import (
	"context"
	"fmt"
	"time"
)

// LabelFrequency is one label's occurrence count within a query's scope.
type LabelFrequency struct {
	Label string
	Count int
}

// MonthlyLabelCount is one label's occurrence count within one
// calendar-month bucket, for the time-series view.
type MonthlyLabelCount struct {
	Month time.Time
	Label string
	Count int
}

// TierCount is one privacy tier's occurrence count.
type TierCount struct {
	Tier  string
	Count int
}

// PsychologyInsights is the optional aggregate query spec.md §4.4 names,
// driven entirely by the psychological space's stored metadata: label
// frequency, a monthly label time-series, privacy-tier distribution, and
// the top-N labels over the queried range.
type PsychologyInsights struct {
	LabelFrequency   []LabelFrequency
	MonthlySeries    []MonthlyLabelCount
	TierDistribution []TierCount
	TopLabels        []LabelFrequency
}

// PsychologyInsights aggregates over the psychological space's rows for a
// contact, optionally restricted to [from, to) and to a focus label set.
// Assumes the psychological table carries an `indexed_at timestamptz`
// column (see migrations) recording when the row was written.
func (s *Store) PsychologyInsights(ctx context.Context, contact string, from, to time.Time, labelFocus []string, topN int) (PsychologyInsights, error) {
	if topN <= 0 {
		topN = 10
	}

	freq, err := s.labelFrequency(ctx, contact, from, to, labelFocus)
	if err != nil {
		return PsychologyInsights{}, fmt.Errorf("label frequency: %w", err)
	}
	series, err := s.monthlySeries(ctx, contact, from, to, labelFocus)
	if err != nil {
		return PsychologyInsights{}, fmt.Errorf("monthly series: %w", err)
	}
	tiers, err := s.tierDistribution(ctx, contact, from, to)
	if err != nil {
		return PsychologyInsights{}, fmt.Errorf("tier distribution: %w", err)
	}

	top := append([]LabelFrequency{}, freq...)
	if len(top) > topN {
		top = top[:topN]
	}

	return PsychologyInsights{
		LabelFrequency:   freq,
		MonthlySeries:    series,
		TierDistribution: tiers,
		TopLabels:        top,
	}, nil
}

func (s *Store) labelFrequency(ctx context.Context, contact string, from, to time.Time, labelFocus []string) ([]LabelFrequency, error) {
	const query = `
		SELECT label, count(*) AS cnt
		FROM vector_psychological, unnest(labels_coarse) AS label
		WHERE contact = $1 AND indexed_at >= $2 AND indexed_at < $3
		  AND (array_length($4::text[], 1) IS NULL OR label = ANY($4))
		GROUP BY label
		ORDER BY cnt DESC, label ASC
	`
	rows, err := s.pool.Query(ctx, query, contact, from, to, labelFocus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LabelFrequency
	for rows.Next() {
		var f LabelFrequency
		if err := rows.Scan(&f.Label, &f.Count); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) monthlySeries(ctx context.Context, contact string, from, to time.Time, labelFocus []string) ([]MonthlyLabelCount, error) {
	const query = `
		SELECT date_trunc('month', indexed_at) AS month, label, count(*) AS cnt
		FROM vector_psychological, unnest(labels_coarse) AS label
		WHERE contact = $1 AND indexed_at >= $2 AND indexed_at < $3
		  AND (array_length($4::text[], 1) IS NULL OR label = ANY($4))
		GROUP BY month, label
		ORDER BY month ASC, cnt DESC
	`
	rows, err := s.pool.Query(ctx, query, contact, from, to, labelFocus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MonthlyLabelCount
	for rows.Next() {
		var m MonthlyLabelCount
		if err := rows.Scan(&m.Month, &m.Label, &m.Count); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) tierDistribution(ctx context.Context, contact string, from, to time.Time) ([]TierCount, error) {
	const query = `
		SELECT privacy_tier, count(*) AS cnt
		FROM vector_psychological
		WHERE contact = $1 AND indexed_at >= $2 AND indexed_at < $3
		GROUP BY privacy_tier
		ORDER BY cnt DESC
	`
	rows, err := s.pool.Query(ctx, query, contact, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TierCount
	for rows.Next() {
		var t TierCount
		if err := rows.Scan(&t.Tier, &t.Count); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
