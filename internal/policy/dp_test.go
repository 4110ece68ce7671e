package policy

import (
	"testing"

	"chatlens/internal/domain"
)

func TestDPCountWithinToleranceAndNonNegative(t *testing.T) {
	ledger := NewLedger()
	budget := domain.PrivacyBudget{Epsilon: 1.0, Sensitivity: 1.0}

	values := make([]float64, 42)
	for i := range values {
		values[i] = 1
	}

	var sum float64
	const trials = 1000
	for i := 0; i < trials; i++ {
		salt := append([]byte{}, testSalt()...)
		salt[0] = byte(i)
		salt[1] = byte(i >> 8)
		engine := NewEngine(salt, ledger)
		results := engine.AggregateStatisticsWithDP("fp", []Query{
			{Name: "matches", Kind: QueryCount, Values: values, Budget: budget},
		})
		r := results["matches"]
		if r.Count < 0 {
			t.Fatalf("trial %d: expected non-negative count, got %v", i, r.Count)
		}
		sum += r.Count
	}
	mean := sum / trials
	if mean < 40 || mean > 44 {
		t.Fatalf("expected sample mean in [40, 44], got %v", mean)
	}
}

func TestDPHistogramZeroRecordsNonNegative(t *testing.T) {
	engine := NewEngine(testSalt(), NewLedger())
	budget := domain.PrivacyBudget{Epsilon: 0.001, Sensitivity: 1.0}
	results := engine.AggregateStatisticsWithDP("fp", []Query{
		{Name: "hist", Kind: QueryHistogram, Bins: []int{0, 0, 0}, Budget: budget},
	})
	r := results["hist"]
	for i, v := range r.Histogram {
		if v < 0 {
			t.Fatalf("bin %d: expected non-negative, got %v", i, v)
		}
	}
}

func TestDPCompositionSumsEpsilon(t *testing.T) {
	ledger := NewLedger()
	engine := NewEngine(testSalt(), ledger)
	budget := domain.PrivacyBudget{Epsilon: 1.0, Sensitivity: 1.0}

	engine.AggregateStatisticsWithDP("fp", []Query{
		{Name: "a", Kind: QueryCount, Values: []float64{1, 2, 3}, Budget: budget},
		{Name: "b", Kind: QueryCount, Values: []float64{1, 2}, Budget: budget},
	})
	spent := ledger.Spent("fp:a") + ledger.Spent("fp:b")
	want := budget.Epsilon/2 + budget.Epsilon/2
	if spent != want {
		t.Fatalf("expected tracked epsilon sum %v, got %v", want, spent)
	}
}

func TestPrivacyBudgetCapExhausted(t *testing.T) {
	ledger := NewLedger()
	ledger.SetCap("fp:q", 0.5)
	if err := ledger.Spend("fp:q", 0.3); err != nil {
		t.Fatalf("unexpected error on first spend: %v", err)
	}
	if err := ledger.Spend("fp:q", 0.3); err == nil {
		t.Fatalf("expected ErrBudgetExhausted on cumulative overrun")
	}
}
