package policy

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"chatlens/internal/domain"
)

var tokenPattern = regexp.MustCompile(`\S+`)

// Shield is the Policy Shield: detector + hard-fail scanner + tokenizer,
// bound to one policy configuration and one run's pseudonymization salt.
type Shield struct {
	policy    Policy
	detector  *Detector
	hardFail  *HardFailDetector
	tokenizer *Tokenizer
}

// NewShield constructs a Shield. namesList may be nil to disable name
// detection regardless of policy.DetectNames.
func NewShield(p Policy, salt []byte, namesList []string) *Shield {
	return &Shield{
		policy:    p,
		detector:  NewDetector(p.DetectNames, namesList),
		hardFail:  NewHardFailDetector(),
		tokenizer: NewTokenizer(salt),
	}
}

// RedactChunkText implements redact_chunk_text: it returns the redacted
// text and its metadata, or ErrHardFailContent if the confirmed hard-fail
// tier fires and policy blocks on hard-fail.
func (s *Shield) RedactChunkText(text string) (string, domain.RedactionMetadata, error) {
	hf := s.hardFail.Scan(text)
	if hf.Triggered && hf.Level.BlocksAll() && s.policy.BlockHardFail {
		return text, domain.RedactionMetadata{
			RedactedText:      text,
			HardFailTriggered: true,
			HardFailClass:     string(hf.Class),
			HardFailLevel:     levelToDomain(hf.Level),
		}, fmt.Errorf("%w: class=%s level=confirmed", ErrHardFailContent, hf.Class)
	}

	detections := s.detector.Detect(text)
	redactedText, placeholders := s.applyRedactions(text, detections)

	totalTokens := len(tokenPattern.FindAllString(text, -1))
	redactedTokens := s.countRedactedTokens(text, detections)
	coverage := 1.0
	if totalTokens > 0 {
		coverage = 1.0 - float64(redactedTokens)/float64(totalTokens)
	}

	meta := domain.RedactionMetadata{
		RedactedText:      redactedText,
		Placeholders:      placeholders,
		TokensRedacted:    redactedTokens,
		TokensTotal:       totalTokens,
		Coverage:          coverage,
		HardFailTriggered: hf.Triggered,
	}
	if hf.Triggered {
		meta.HardFailClass = string(hf.Class)
		meta.HardFailLevel = levelToDomain(hf.Level)
	}
	return redactedText, meta, nil
}

// levelToDomain and levelFromDomain translate between policy.ThreatLevel
// (the live detector's ordering) and domain.HardFailLevel (the
// import-cycle-free form threaded through RedactionMetadata/Report),
// explicitly rather than relying on the two enums sharing numeric values.
func levelToDomain(l ThreatLevel) domain.HardFailLevel {
	switch l {
	case Confirmed:
		return domain.HardFailConfirmed
	case Probable:
		return domain.HardFailProbable
	case Suspicious:
		return domain.HardFailSuspicious
	default:
		return domain.HardFailSafe
	}
}

func levelFromDomain(l domain.HardFailLevel) ThreatLevel {
	switch l {
	case domain.HardFailConfirmed:
		return Confirmed
	case domain.HardFailProbable:
		return Probable
	case domain.HardFailSuspicious:
		return Suspicious
	default:
		return Safe
	}
}

// applyRedactions replaces every non-overlapping detection (longest-first
// on overlap, then leftmost) with its token or bracket form, left to right.
func (s *Shield) applyRedactions(text string, detections []Detection) (string, map[string]int) {
	sorted := make([]Detection, len(detections))
	copy(sorted, detections)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return (sorted[i].End - sorted[i].Start) > (sorted[j].End - sorted[j].Start)
	})

	placeholders := make(map[string]int)
	var b strings.Builder
	cursor := 0
	lastEnd := -1
	for _, d := range sorted {
		if d.Start < lastEnd {
			continue // overlaps a previously applied, longer/earlier match
		}
		b.WriteString(text[cursor:d.Start])
		replacement := s.replacementFor(d)
		b.WriteString(replacement)
		placeholders[string(d.Kind)]++
		cursor = d.End
		lastEnd = d.End
	}
	b.WriteString(text[cursor:])
	return b.String(), placeholders
}

func (s *Shield) replacementFor(d Detection) string {
	if s.policy.Pseudonymize && s.policy.OpaqueTokens {
		return s.tokenizer.Token(d.Kind, d.Surface)
	}
	return BracketToken(d.Kind)
}

// countRedactedTokens counts the whitespace-delimited tokens in text that
// overlap at least one detection span.
func (s *Shield) countRedactedTokens(text string, detections []Detection) int {
	if len(detections) == 0 {
		return 0
	}
	count := 0
	for _, loc := range tokenPattern.FindAllStringIndex(text, -1) {
		for _, d := range detections {
			if loc[0] < d.End && d.Start < loc[1] {
				count++
				break
			}
		}
	}
	return count
}

// RedactChunks implements redact_chunks: redacts every chunk's text in
// order, quarantining any chunk whose hard-fail scan is confirmed-level
// (it is omitted from the returned slice) and aggregating the conversation
// report. A confirmed hard-fail at any chunk sets hardfail_triggered on the
// overall report even though processing continues for the remaining
// chunks (spec.md §7: only extraction-entry SourceUnreadable and ledger-
// capped BudgetExhausted are conversation-fatal; HardFailContent at
// confirmed aborts only when the caller chooses to stop on the returned
// report, which this function leaves to its caller).
func (s *Shield) RedactChunks(chunks []domain.Chunk) ([]domain.Chunk, domain.RedactionReport) {
	report := domain.RedactionReport{
		Strict:            s.policy.StrictMode,
		Placeholders:      make(map[string]int),
		CoarseLabelCounts: make(map[string]int),
		PerChunkCoverage:  make(map[string]float64),
		HardFailLevels:    make(map[string]domain.HardFailLevel),
	}
	threshold := s.policy.EffectiveThreshold()

	var out []domain.Chunk
	var coverageSum float64
	var coverageN int

	for _, c := range chunks {
		redactedText, meta, err := s.RedactChunkText(c.Text)
		report.MessagesTotal += len(c.Meta.MessageIDs)

		if meta.HardFailTriggered {
			report.HardfailTriggered = true
			report.HardFailLevels[c.ChunkID] = meta.HardFailLevel
		}

		if err != nil {
			report.VisibilityLeaks = append(report.VisibilityLeaks, c.ChunkID)
			report.Notes = append(report.Notes, fmt.Sprintf("chunk %s quarantined: %v", c.ChunkID, err))
			continue
		}
		if meta.HardFailTriggered {
			report.Notes = append(report.Notes, fmt.Sprintf("chunk %s hard-fail level=%s class=%s logged", c.ChunkID, meta.HardFailLevel, meta.HardFailClass))
		}

		for kind, n := range meta.Placeholders {
			report.Placeholders[kind] += n
		}
		report.TokensRedacted += meta.TokensRedacted
		report.PerChunkCoverage[c.ChunkID] = meta.Coverage
		coverageSum += meta.Coverage
		coverageN++

		if meta.Coverage < threshold {
			report.Notes = append(report.Notes, fmt.Sprintf("chunk %s coverage %.4f below threshold %.4f", c.ChunkID, meta.Coverage, threshold))
		}

		redacted := c
		redacted.Text = redactedText
		out = append(out, redacted)
	}

	if coverageN > 0 {
		report.Coverage = coverageSum / float64(coverageN)
	} else {
		report.Coverage = 1.0
	}
	return out, report
}

// PreflightCloudCheck implements preflight_cloud_check: it re-examines the
// redacted chunks and report for any condition that blocks the cloud
// boundary (spec.md §4.1, §8). Per chunk, it calls the triggered level's
// own BlocksCloud/ShouldLog rules rather than collapsing every level into
// one flag: Confirmed (already quarantined, see VisibilityLeaks) and
// Probable both block the cloud boundary, Suspicious only logs.
func (s *Shield) PreflightCloudCheck(chunks []domain.Chunk, report domain.RedactionReport) (bool, []string) {
	var issues []string
	threshold := s.policy.EffectiveThreshold()

	if len(report.VisibilityLeaks) > 0 {
		issues = append(issues, "hard-fail")
	}

	chunkIDs := make([]string, 0, len(report.HardFailLevels))
	for chunkID := range report.HardFailLevels {
		chunkIDs = append(chunkIDs, chunkID)
	}
	sort.Strings(chunkIDs)
	for _, chunkID := range chunkIDs {
		level := levelFromDomain(report.HardFailLevels[chunkID])
		// Suspicious-only chunks satisfy ShouldLog() but not BlocksCloud():
		// RedactChunks already recorded them in report.Notes, so they raise
		// no cloud-boundary issue here.
		if level.BlocksCloud() {
			issues = append(issues, fmt.Sprintf("hard-fail-cloud-block:%s", chunkID))
		}
	}
	for _, c := range chunks {
		cov, ok := report.PerChunkCoverage[c.ChunkID]
		if ok && cov < threshold {
			issues = append(issues, fmt.Sprintf("coverage-below-threshold:%s", c.ChunkID))
		}
		if len(c.Meta.LabelsFineLocal) > 0 {
			issues = append(issues, fmt.Sprintf("fine-label-present:%s", c.ChunkID))
		}
	}
	return len(issues) == 0, issues
}
