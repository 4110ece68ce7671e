package policy

import (
	"encoding/binary"
	"math"
	"math/rand"
	"sync"

	"chatlens/internal/domain"
)

// QueryKind is the closed set of differentially-private aggregate queries
// the engine supports (spec.md §4.1).
type QueryKind string

const (
	QueryCount     QueryKind = "count"
	QuerySum       QueryKind = "sum"
	QueryHistogram QueryKind = "histogram"
	QueryMean      QueryKind = "mean"
)

// Mechanism selects the noise distribution.
type Mechanism string

const (
	MechanismLaplace  Mechanism = "laplace"
	MechanismGaussian Mechanism = "gaussian"
)

// Query describes one differentially-private aggregate request.
type Query struct {
	Name      string
	Kind      QueryKind
	Mechanism Mechanism
	Budget    domain.PrivacyBudget

	// Count/Sum/Mean inputs.
	Values []float64 // raw values; Count ignores magnitude, Sum/Mean use it
	Min    float64
	Max    float64

	// Histogram inputs.
	Bins []int // raw per-bin counts
}

// DPResult is the noised, post-processed outcome of a single query.
type DPResult struct {
	QueryName    string
	Count        float64
	Sum          float64
	Mean         float64
	Histogram    []float64
	EpsilonSpent float64
}

// Ledger tracks cumulative epsilon spend per query-fingerprint
// (spec.md §3 PrivacyBudget, §5 "mutated by every DP query; writes use a
// mutual-exclusion region").
type Ledger struct {
	mu   sync.Mutex
	caps map[string]float64 // fingerprint -> epsilon cap, 0 = uncapped
	used map[string]float64
}

// NewLedger builds an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{caps: make(map[string]float64), used: make(map[string]float64)}
}

// SetCap bounds the cumulative epsilon a fingerprint may spend; 0 disables
// the cap.
func (l *Ledger) SetCap(fingerprint string, cap float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.caps[fingerprint] = cap
}

// Spend attempts to record epsilon spend against fingerprint, returning
// ErrBudgetExhausted if it would exceed the configured cap (spec.md §7
// BudgetExhausted).
func (l *Ledger) Spend(fingerprint string, epsilon float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	cap := l.caps[fingerprint]
	if cap > 0 && l.used[fingerprint]+epsilon > cap {
		return ErrBudgetExhausted
	}
	l.used[fingerprint] += epsilon
	return nil
}

// Spent returns the cumulative epsilon recorded for fingerprint.
func (l *Ledger) Spent(fingerprint string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.used[fingerprint]
}

// Engine runs differentially-private aggregate queries with deterministic,
// salt-seeded noise (spec.md §4.1 determinism requirement). Grounded on
// original_source/src/chatx/privacy/differential_privacy.py for the
// Laplace/Gaussian/composition semantics.
type Engine struct {
	rng    *rand.Rand
	ledger *Ledger
}

// NewEngine derives the deterministic seed from the first 8 bytes of salt
// interpreted as a big-endian integer mod 2^32, per spec.md §4.1.
func NewEngine(salt []byte, ledger *Ledger) *Engine {
	return &Engine{rng: rand.New(rand.NewSource(SeedFromSalt(salt))), ledger: ledger}
}

// SeedFromSalt derives the deterministic rand seed used across every
// DP-noised computation in this module (the query engine here, and the
// context bridge's noisy scores), per spec.md §4.1: the first 8 bytes of
// salt, big-endian, mod 2^32.
func SeedFromSalt(salt []byte) int64 {
	var seedBytes [8]byte
	copy(seedBytes[:], salt)
	return int64(binary.BigEndian.Uint64(seedBytes[:]) % (1 << 32))
}

// LaplaceNoise draws one Laplace(0, sensitivity/epsilon) sample. Exported so
// callers outside this package (the context bridge's per-score noise) share
// the exact same mechanism rather than reimplementing it.
func LaplaceNoise(rng *rand.Rand, sensitivity, epsilon float64) float64 {
	return laplaceSample(rng, sensitivity/epsilon)
}

// AggregateStatisticsWithDP executes every named query under a split
// budget and returns query_name -> DPResult.
func (e *Engine) AggregateStatisticsWithDP(fingerprint string, queries []Query) map[string]DPResult {
	out := make(map[string]DPResult, len(queries))
	k := len(queries)
	if k == 0 {
		return out
	}
	for _, q := range queries {
		perQueryEpsilon := q.Budget.Epsilon / float64(k)
		budget := q.Budget
		budget.Epsilon = perQueryEpsilon

		if e.ledger != nil {
			if err := e.ledger.Spend(fingerprint+":"+q.Name, perQueryEpsilon); err != nil {
				out[q.Name] = DPResult{QueryName: q.Name}
				continue
			}
		}
		out[q.Name] = e.run(q, budget)
	}
	return out
}

func (e *Engine) run(q Query, budget domain.PrivacyBudget) DPResult {
	switch q.Kind {
	case QueryCount:
		return e.runCount(q, budget)
	case QuerySum:
		return e.runSum(q, budget)
	case QueryMean:
		return e.runMean(q, budget)
	case QueryHistogram:
		return e.runHistogram(q, budget)
	default:
		return DPResult{QueryName: q.Name}
	}
}

func (e *Engine) runCount(q Query, budget domain.PrivacyBudget) DPResult {
	raw := float64(len(q.Values))
	noisy := raw + e.noise(budget)
	if noisy < 0 {
		noisy = 0
	}
	return DPResult{QueryName: q.Name, Count: noisy, EpsilonSpent: budget.Epsilon}
}

func (e *Engine) runSum(q Query, budget domain.PrivacyBudget) DPResult {
	var sum float64
	for _, v := range q.Values {
		sum += clip(v, q.Min, q.Max)
	}
	budget.Sensitivity = q.Max - q.Min
	noisy := sum + e.noise(budget)
	return DPResult{QueryName: q.Name, Sum: noisy, EpsilonSpent: budget.Epsilon}
}

func (e *Engine) runMean(q Query, budget domain.PrivacyBudget) DPResult {
	halfEpsilon := budget.Epsilon / 2
	sumBudget := budget
	sumBudget.Epsilon = halfEpsilon
	sumBudget.Sensitivity = q.Max - q.Min
	countBudget := budget
	countBudget.Epsilon = halfEpsilon

	var sum float64
	for _, v := range q.Values {
		sum += clip(v, q.Min, q.Max)
	}
	noisySum := sum + e.noise(sumBudget)
	noisyCount := float64(len(q.Values)) + e.noise(countBudget)
	if noisyCount < 1 {
		noisyCount = 1
	}
	return DPResult{QueryName: q.Name, Mean: noisySum / noisyCount, EpsilonSpent: budget.Epsilon}
}

func (e *Engine) runHistogram(q Query, budget domain.PrivacyBudget) DPResult {
	bins := len(q.Bins)
	perBinEpsilon := budget.Epsilon / math.Max(1, float64(bins))
	binBudget := budget
	binBudget.Epsilon = perBinEpsilon

	out := make([]float64, bins)
	for i, c := range q.Bins {
		noisy := float64(c) + e.noise(binBudget)
		if noisy < 0 {
			noisy = 0
		}
		out[i] = noisy
	}
	return DPResult{QueryName: q.Name, Histogram: out, EpsilonSpent: budget.Epsilon}
}

// noise draws from Laplace(0, sensitivity/epsilon) or, under the Gaussian
// mechanism, N(0, (sqrt(2 ln(1.25/delta))*sensitivity/epsilon)^2).
func (e *Engine) noise(b domain.PrivacyBudget) float64 {
	if b.Delta > 0 {
		sigma := math.Sqrt(2*math.Log(1.25/b.Delta)) * b.Sensitivity / b.Epsilon
		return e.rng.NormFloat64() * sigma
	}
	scale := b.Sensitivity / b.Epsilon
	return laplaceSample(e.rng, scale)
}

func laplaceSample(rng *rand.Rand, scale float64) float64 {
	u := rng.Float64() - 0.5
	sign := 1.0
	if u < 0 {
		sign = -1.0
	}
	return -scale * sign * math.Log(1-2*math.Abs(u))
}

func clip(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
