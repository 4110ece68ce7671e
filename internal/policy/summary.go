package policy

import "chatlens/internal/domain"

// PrivacySafeSummary is the output of generate_privacy_safe_summary: DP
// counts plus an optional noised label distribution.
type PrivacySafeSummary struct {
	ChunkCount       DPResult
	LabelDistribution map[string]DPResult
}

// GeneratePrivacySafeSummary implements generate_privacy_safe_summary:
// a DP count over the redacted chunks plus, when labels are present, a DP
// histogram of coarse label frequency.
func (e *Engine) GeneratePrivacySafeSummary(fingerprint string, chunks []domain.Chunk, budget domain.PrivacyBudget) PrivacySafeSummary {
	values := make([]float64, len(chunks))
	for i := range chunks {
		values[i] = 1
	}
	countQuery := Query{Name: "chunk_count", Kind: QueryCount, Values: values, Budget: budget}

	labelCounts := make(map[string]int)
	for _, c := range chunks {
		for _, l := range c.Meta.LabelsCoarse {
			labelCounts[l]++
		}
	}

	queries := []Query{countQuery}
	labels := make([]string, 0, len(labelCounts))
	for l := range labelCounts {
		labels = append(labels, l)
	}
	bins := make([]int, len(labels))
	for i, l := range labels {
		bins[i] = labelCounts[l]
	}
	if len(labels) > 0 {
		queries = append(queries, Query{Name: "label_distribution", Kind: QueryHistogram, Bins: bins, Budget: budget})
	}

	results := e.AggregateStatisticsWithDP(fingerprint, queries)

	summary := PrivacySafeSummary{ChunkCount: CountOf(results, "chunk_count")}
	if hist, ok := results["label_distribution"]; ok {
		summary.LabelDistribution = make(map[string]DPResult, len(labels))
		for i, l := range labels {
			if i < len(hist.Histogram) {
				summary.LabelDistribution[l] = DPResult{QueryName: l, Count: hist.Histogram[i], EpsilonSpent: hist.EpsilonSpent}
			}
		}
	}
	return summary
}

// CountOf extracts a named result from an AggregateStatisticsWithDP map,
// returning the zero value if absent.
func CountOf(results map[string]DPResult, name string) DPResult {
	return results[name]
}
