package policy

import (
	"strings"
	"testing"

	"chatlens/internal/domain"
)

func testSalt() []byte {
	return []byte("0123456789abcdef0123456789abcdef")
}

func TestRedactChunkTextPIIRoundTrip(t *testing.T) {
	shield := NewShield(Policy{Threshold: 0.99, Pseudonymize: true, OpaqueTokens: true}, testSalt(), nil)
	text := "Email me at alice@example.com or call +1-415-555-0101."

	redacted, meta, err := shield.RedactChunkText(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(redacted, "alice@example.com") {
		t.Fatalf("expected email to be redacted, got %q", redacted)
	}
	if meta.Placeholders["EMAIL"] != 1 {
		t.Fatalf("expected one EMAIL placeholder, got %d", meta.Placeholders["EMAIL"])
	}
	if meta.Placeholders["PHONE"] != 1 {
		t.Fatalf("expected one PHONE placeholder, got %d", meta.Placeholders["PHONE"])
	}
	if meta.Coverage < 0.99 {
		t.Fatalf("expected coverage >= 0.99, got %v", meta.Coverage)
	}
	if meta.TokensRedacted < 2 {
		t.Fatalf("expected at least 2 redacted tokens, got %d", meta.TokensRedacted)
	}
}

func TestPseudonymizationIdempotent(t *testing.T) {
	shield := NewShield(Policy{Pseudonymize: true, OpaqueTokens: true}, testSalt(), nil)
	text := "contact bob@example.com"

	redactedOnce, _, err := shield.RedactChunkText(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	redactedTwice, _, err := shield.RedactChunkText(redactedOnce)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if redactedOnce != redactedTwice {
		t.Fatalf("expected redact(redact(T)) == redact(T): %q vs %q", redactedOnce, redactedTwice)
	}
}

func TestPseudonymizationConsistentAcrossInputs(t *testing.T) {
	shield := NewShield(Policy{Pseudonymize: true, OpaqueTokens: true}, testSalt(), nil)

	r1, _, _ := shield.RedactChunkText("email carol@example.com today")
	r2, _, _ := shield.RedactChunkText("yesterday carol@example.com emailed")

	tokenIn := func(s string) string {
		start := strings.Index(s, "⟦TKN:EMAIL:")
		end := strings.Index(s[start:], "⟧") + start + 1
		return s[start:end]
	}
	if tokenIn(r1) != tokenIn(r2) {
		t.Fatalf("expected same (surface, kind) to yield the same token: %q vs %q", tokenIn(r1), tokenIn(r2))
	}
}

func TestHardFailBlocksConfirmed(t *testing.T) {
	shield := NewShield(Policy{BlockHardFail: true}, testSalt(), nil)
	_, meta, err := shield.RedactChunkText("this message contains child sexual content")
	if err == nil {
		t.Fatalf("expected ErrHardFailContent")
	}
	if !meta.HardFailTriggered {
		t.Fatalf("expected HardFailTriggered=true")
	}
}

func TestRedactChunksQuarantinesHardFail(t *testing.T) {
	shield := NewShield(Policy{BlockHardFail: true, Threshold: 0.99}, testSalt(), nil)
	safeText := "let's grab coffee tomorrow"
	hardFailText := "this message contains child sexual content"

	chunks := []domain.Chunk{
		{ChunkID: "c1", Text: safeText, Meta: domain.ChunkMeta{MessageIDs: []string{"m1"}}},
		{ChunkID: "c2", Text: hardFailText, Meta: domain.ChunkMeta{MessageIDs: []string{"m2"}}},
	}
	redacted, report := shield.RedactChunks(chunks)
	if len(redacted) != 1 {
		t.Fatalf("expected hard-fail chunk quarantined, got %d chunks", len(redacted))
	}
	if !report.HardfailTriggered {
		t.Fatalf("expected hardfail_triggered=true")
	}
	if len(report.VisibilityLeaks) != 1 || report.VisibilityLeaks[0] != "c2" {
		t.Fatalf("expected c2 in visibility_leaks, got %v", report.VisibilityLeaks)
	}

	passed, issues := shield.PreflightCloudCheck(redacted, report)
	if passed {
		t.Fatalf("expected preflight to fail")
	}
	found := false
	for _, issue := range issues {
		if issue == "hard-fail" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected 'hard-fail' issue, got %v", issues)
	}
}

func TestRedactChunksProbableBlocksCloudButNotAll(t *testing.T) {
	shield := NewShield(Policy{BlockHardFail: true, Threshold: 0.0}, testSalt(), nil)
	chunks := []domain.Chunk{
		{ChunkID: "c1", Text: "going to shoot him tonight", Meta: domain.ChunkMeta{MessageIDs: []string{"m1"}}},
	}

	redacted, report := shield.RedactChunks(chunks)
	if len(redacted) != 1 {
		t.Fatalf("expected probable-level chunk NOT quarantined, got %d chunks", len(redacted))
	}
	if len(report.VisibilityLeaks) != 0 {
		t.Fatalf("expected no visibility leaks at probable level, got %v", report.VisibilityLeaks)
	}
	if report.HardFailLevels["c1"] != domain.HardFailProbable {
		t.Fatalf("expected c1 recorded at probable level, got %v", report.HardFailLevels["c1"])
	}

	passed, issues := shield.PreflightCloudCheck(redacted, report)
	if passed {
		t.Fatalf("expected preflight to fail for probable-level content")
	}
	found := false
	for _, issue := range issues {
		if issue == "hard-fail-cloud-block:c1" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected 'hard-fail-cloud-block:c1' issue, got %v", issues)
	}
}

func TestRedactChunksSuspiciousLogsOnlyNeverBlocks(t *testing.T) {
	shield := NewShield(Policy{BlockHardFail: true, Threshold: 0.0}, testSalt(), nil)
	chunks := []domain.Chunk{
		{ChunkID: "c1", Text: "need to buy a weapon before the weekend", Meta: domain.ChunkMeta{MessageIDs: []string{"m1"}}},
	}

	redacted, report := shield.RedactChunks(chunks)
	if len(redacted) != 1 {
		t.Fatalf("expected suspicious-level chunk NOT quarantined, got %d chunks", len(redacted))
	}
	if report.HardFailLevels["c1"] != domain.HardFailSuspicious {
		t.Fatalf("expected c1 recorded at suspicious level, got %v", report.HardFailLevels["c1"])
	}

	passed, issues := shield.PreflightCloudCheck(redacted, report)
	if !passed {
		t.Fatalf("expected preflight to pass for suspicious-only content, got issues %v", issues)
	}
}

func TestEmptyConversationReportCoverageOne(t *testing.T) {
	shield := NewShield(Policy{}, testSalt(), nil)
	redacted, report := shield.RedactChunks(nil)
	if len(redacted) != 0 {
		t.Fatalf("expected no chunks, got %d", len(redacted))
	}
	if report.Coverage != 1.0 {
		t.Fatalf("expected coverage=1.0 for empty conversation, got %v", report.Coverage)
	}
	if report.MessagesTotal != 0 {
		t.Fatalf("expected messages_total=0, got %d", report.MessagesTotal)
	}
}
