package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"chatlens/internal/bridge"
	"chatlens/internal/chunker"
	"chatlens/internal/domain"
	"chatlens/internal/embed"
	"chatlens/internal/enrichment"
	"chatlens/internal/extractor"
	"chatlens/internal/llm"
	"chatlens/internal/policy"
)

// fakeReportRepo is an in-memory stand-in for repository.ReportRepository
// so pipeline tests can assert persistence without a database.
type fakeReportRepo struct {
	mu          sync.Mutex
	redaction   map[string]domain.RedactionReport
	missing     map[string]domain.MissingAttachmentsReport
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{
		redaction: make(map[string]domain.RedactionReport),
		missing:   make(map[string]domain.MissingAttachmentsReport),
	}
}

func (f *fakeReportRepo) SaveRedactionReport(_ context.Context, runID, _ string, report domain.RedactionReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.redaction[runID] = report
	return nil
}

func (f *fakeReportRepo) RedactionReport(_ context.Context, runID string) (domain.RedactionReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.redaction[runID], nil
}

func (f *fakeReportRepo) SaveMissingAttachmentsReport(_ context.Context, runID string, report domain.MissingAttachmentsReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.missing[runID] = report
	return nil
}

func (f *fakeReportRepo) MissingAttachmentsReport(_ context.Context, runID string) (domain.MissingAttachmentsReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.missing[runID], nil
}

func testPolicy() policy.Policy {
	return policy.Policy{
		Threshold:     0.5,
		BlockHardFail: true,
		DetectNames:   false,
	}
}

func scriptedLLM() *llm.MockClient {
	return &llm.MockClient{
		Responses: []string{
			`{"speech_act":"inform","communication_style":"direct","turn_pattern":"responding","boundary_signal":"none","confidence":0.9}`,
			`{"coarse_labels":["support"],"fine_labels":[],"primary_emotion":"joy","emotion_confidence":0.9,"attachment_style":"secure","intimacy_level":3,"needs":{"autonomy":0.1,"competence":0.2,"relatedness":0.5},"defense_mechanisms":[],"relational_power":0.1,"confidence":0.85}`,
			`{"relationship_stage":"norming","interaction_quality":"warm","trust_level":4,"conflict_style":"collaborative","temporal_flow":"steady","emotional_trajectory":"improving","attachment_behaviors":[],"longitudinal_labels":["trust_building"],"confidence":0.9}`,
		},
	}
}

func buildTestPipeline(t *testing.T, reports *fakeReportRepo) *Pipeline {
	t.Helper()

	salt := []byte("0123456789abcdef0123456789abcdef")
	shield := policy.NewShield(testPolicy(), salt, nil)

	tax := domain.DefaultLabelTaxonomy()
	enrich := enrichment.NewPipeline(scriptedLLM(), "llama3", tax, enrichment.DefaultConfidenceBand())

	br, err := bridge.NewBridge(salt, 1.0, false)
	if err != nil {
		t.Fatalf("new bridge: %v", err)
	}

	return New(Dependencies{
		Shield:     shield,
		ChunkOpts:  chunker.DefaultOptions(),
		Enrichment: enrich,
		Bridge:     br,
		Embedder:   embed.NewEmbedder(),
		Reports:    reports,
		Concurrency: 2,
	})
}

func sampleRows() []extractor.PreparedRow {
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	text := func(s string) *string { return &s }
	return []extractor.PreparedRow{
		{GUID: "m1", ConvID: "conv-a", Platform: "imessage", Timestamp: base, Sender: "Alice", SenderID: "alice", Text: text("hey, thanks for always being there for me")},
		{GUID: "m2", ConvID: "conv-a", Platform: "imessage", Timestamp: base.Add(time.Minute), Sender: "Bob", SenderID: "bob", Text: text("of course, always here")},
		{GUID: "m3", ConvID: "conv-b", Platform: "imessage", Timestamp: base, Sender: "Carol", SenderID: "carol", Text: text("let's talk about the schedule")},
	}
}

func TestPipelineRunProducesSummaryAndPersistsReports(t *testing.T) {
	reports := newFakeReportRepo()
	p := buildTestPipeline(t, reports)

	summary, err := p.Run(context.Background(), "run-1", "contact-1", sampleRows())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if summary.RunID != "run-1" {
		t.Fatalf("expected run id to be preserved, got %q", summary.RunID)
	}
	if summary.ConversationsTotal != 2 {
		t.Fatalf("expected 2 conversations, got %d", summary.ConversationsTotal)
	}
	if summary.ChunksTotal == 0 {
		t.Fatalf("expected at least one chunk")
	}
	if summary.Extraction.MessagesTotal != 3 {
		t.Fatalf("expected 3 messages folded, got %d", summary.Extraction.MessagesTotal)
	}
	if len(summary.ConversationErrors) != 0 {
		t.Fatalf("expected no conversation errors, got %v", summary.ConversationErrors)
	}

	if _, ok := reports.redaction["run-1"]; !ok {
		t.Fatalf("expected redaction report to be persisted")
	}
	if _, ok := reports.missing["run-1"]; !ok {
		t.Fatalf("expected missing attachments report to be persisted")
	}
}

func TestPipelineRunGeneratesRunIDWhenEmpty(t *testing.T) {
	p := buildTestPipeline(t, newFakeReportRepo())
	summary, err := p.Run(context.Background(), "", "contact-1", sampleRows())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.RunID == "" {
		t.Fatalf("expected a generated run id")
	}
}

func TestPipelineRunSkipsInvalidRows(t *testing.T) {
	p := buildTestPipeline(t, newFakeReportRepo())
	rows := sampleRows()
	rows = append(rows, extractor.PreparedRow{GUID: "", ConvID: "conv-a"})

	summary, err := p.Run(context.Background(), "run-2", "contact-1", rows)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(summary.ConversationErrors) != 1 {
		t.Fatalf("expected exactly one validation error, got %v", summary.ConversationErrors)
	}
	if summary.Extraction.MessagesTotal != 3 {
		t.Fatalf("expected invalid row excluded from folding, got %d messages", summary.Extraction.MessagesTotal)
	}
}

func TestDecidePrivacyTierPrefersFineOverCoarse(t *testing.T) {
	fine := decidePrivacyTier(domain.Enrichment{LabelsFine: []string{"f1"}, LabelsCoarse: []string{"c1"}})
	if fine != domain.TierLocalOnly {
		t.Fatalf("expected local_only when fine labels present, got %v", fine)
	}

	coarseOnly := decidePrivacyTier(domain.Enrichment{LabelsCoarse: []string{"c1"}})
	if coarseOnly != domain.TierCloudSafe {
		t.Fatalf("expected cloud_safe when only coarse labels present, got %v", coarseOnly)
	}

	none := decidePrivacyTier(domain.Enrichment{})
	if none != domain.TierPatternOnly {
		t.Fatalf("expected pattern_only when no labels present, got %v", none)
	}
}

func TestGroupByConvPreservesOrderWithinConversation(t *testing.T) {
	messages := []domain.CanonicalMessage{
		{MsgID: "1", ConvID: "a"},
		{MsgID: "2", ConvID: "b"},
		{MsgID: "3", ConvID: "a"},
	}
	grouped := groupByConv(messages)
	if len(grouped["a"]) != 2 || grouped["a"][0].MsgID != "1" || grouped["a"][1].MsgID != "3" {
		t.Fatalf("expected conversation a to preserve order [1,3], got %+v", grouped["a"])
	}
	if len(grouped["b"]) != 1 {
		t.Fatalf("expected conversation b to have 1 message")
	}
}
