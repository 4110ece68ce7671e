// Package pipeline is the run orchestrator wiring the eight stages spec.md
// §2 names end to end: Extractor (caller-supplied rows) -> Chunker ->
// Policy Shield -> Multi-Pass Enrichment -> Hierarchical Context Bridge ->
// Multi-Vector Indexer -> Psychology Graph, plus the two run-level reports.
// RAG Query is served separately by internal/rag + internal/httpapi, since
// it runs against already-indexed data rather than as part of a run.
//
// Grounded on the teacher's service layer composition style (services
// constructed once in main and driven by a single coordinating method,
// e.g. CloneService.Chat chaining narrative/context/analysis services) and
// on SPEC_FULL.md §5's worker-pool-with-semaphore concurrency model: one
// conversation's chunks are processed strictly in order (rolling
// enrichment context, graph predecessor chaining, bridge window all
// require it), while conversations themselves fan out across a bounded
// semaphore, matching the teacher's own lack of goroutine-pool libraries.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatlens/internal/bridge"
	"chatlens/internal/chunker"
	"chatlens/internal/domain"
	"chatlens/internal/embed"
	"chatlens/internal/enrichment"
	"chatlens/internal/extractor"
	"chatlens/internal/graph"
	"chatlens/internal/policy"
	"chatlens/internal/repository"
	"chatlens/internal/vectorstore"
)

// defaultHistoryWindow bounds how many recent chunks of a conversation are
// kept as rolling context for the relationships pass and the bridge's
// abstraction engine.
const defaultHistoryWindow = 5

// defaultConcurrency bounds how many conversations are enriched in
// parallel when the caller does not configure one.
const defaultConcurrency = 4

// Dependencies are the constructed stage collaborators a Pipeline drives.
// Each is built once in main and shared across runs.
type Dependencies struct {
	Shield      *policy.Shield
	ChunkOpts   chunker.Options
	Enrichment  *enrichment.Pipeline
	Bridge      *bridge.Bridge
	VectorStore *vectorstore.Store
	GraphEngine *graph.Engine
	Embedder    *embed.Embedder
	Reports     repository.ReportRepository
	Logger      *zap.Logger

	// Concurrency bounds in-flight conversation workers. Defaults to 4.
	Concurrency int
	// HistoryWindow bounds the rolling per-conversation context window.
	// Defaults to 5.
	HistoryWindow int
	// EnableCloudProcessing gates whether the bridge ever produces its
	// level-4 encrypted vector, independent of the per-run preflight
	// check, which can still veto it per chunk set.
	EnableCloudProcessing bool
	// AttachmentExists checks whether an attachment's recorded path
	// resolves to a readable file; callers typically wire this to
	// os.Stat. Defaults to "always missing" when nil, which is safe
	// (it only ever widens the missing-attachments report).
	AttachmentExists func(path string) bool
}

// Pipeline runs one contact's extraction-to-index pass per call to Run.
type Pipeline struct {
	deps Dependencies
}

// New builds a Pipeline, filling in defaults for unset optional fields.
func New(deps Dependencies) *Pipeline {
	if deps.Concurrency <= 0 {
		deps.Concurrency = defaultConcurrency
	}
	if deps.HistoryWindow <= 0 {
		deps.HistoryWindow = defaultHistoryWindow
	}
	if deps.AttachmentExists == nil {
		deps.AttachmentExists = func(string) bool { return false }
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Pipeline{deps: deps}
}

// Summary is the run-level outcome spec.md §6 names as the pipeline's
// final report: extraction counters, the two persisted reports, the cloud
// preflight verdict, and per-space index write statistics.
type Summary struct {
	RunID   string
	Contact string

	Extraction         domain.ExtractionStats
	ConversationsTotal int
	ChunksTotal        int

	RedactionReport    domain.RedactionReport
	MissingAttachments domain.MissingAttachmentsReport

	CloudEligible     bool
	CloudBlockReasons []string

	WriteStats []vectorstore.WriteStats

	ConversationErrors []string
}

// Run executes the full pipeline for one contact's extracted rows:
// validate and fold into canonical messages, chunk per conversation,
// redact the whole batch, enrich and index each conversation concurrently,
// and persist the two run reports.
func (p *Pipeline) Run(ctx context.Context, runID, contact string, rows []extractor.PreparedRow) (Summary, error) {
	if runID == "" {
		runID = uuid.NewString()
	}

	var validRows []extractor.PreparedRow
	var validationErrors []string
	for _, row := range rows {
		if err := extractor.Validate(row); err != nil {
			validationErrors = append(validationErrors, err.Error())
			continue
		}
		validRows = append(validRows, row)
	}

	messages, stats := extractor.Fold(validRows)

	missingAttachments := extractor.BuildMissingAttachmentsReport(contact, messages, p.deps.AttachmentExists, time.Now().UTC())
	if p.deps.Reports != nil {
		if err := p.deps.Reports.SaveMissingAttachmentsReport(ctx, runID, missingAttachments); err != nil {
			p.deps.Logger.Warn("save missing attachments report failed", zap.Error(err), zap.String("run_id", runID))
		}
	}

	byConv := groupByConv(messages)
	convIDs := make([]string, 0, len(byConv))
	for convID := range byConv {
		convIDs = append(convIDs, convID)
	}
	sort.Strings(convIDs)

	var allChunks []domain.Chunk
	for _, convID := range convIDs {
		allChunks = append(allChunks, chunker.Chunk(byConv[convID], runID, p.deps.ChunkOpts)...)
	}

	redactedChunks, redactionReport := p.deps.Shield.RedactChunks(allChunks)
	if p.deps.Reports != nil {
		if err := p.deps.Reports.SaveRedactionReport(ctx, runID, contact, redactionReport); err != nil {
			p.deps.Logger.Warn("save redaction report failed", zap.Error(err), zap.String("run_id", runID))
		}
	}

	cloudEligible, cloudIssues := p.deps.Shield.PreflightCloudCheck(redactedChunks, redactionReport)
	enableCloud := p.deps.EnableCloudProcessing && cloudEligible

	byConvRedacted := groupChunksByConv(redactedChunks)
	redactedConvIDs := make([]string, 0, len(byConvRedacted))
	for convID := range byConvRedacted {
		redactedConvIDs = append(redactedConvIDs, convID)
	}
	sort.Strings(redactedConvIDs)

	var (
		mu          sync.Mutex
		allRecords  []vectorstore.Record
		convErrors  []string
		wg          sync.WaitGroup
		sem         = make(chan struct{}, p.deps.Concurrency)
	)

	for _, convID := range redactedConvIDs {
		convID := convID
		chunks := byConvRedacted[convID]
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			records, err := p.processConversation(ctx, contact, convID, chunks, enableCloud)
			if err != nil {
				mu.Lock()
				convErrors = append(convErrors, fmt.Sprintf("conversation %s: %v", convID, err))
				mu.Unlock()
				return
			}
			mu.Lock()
			allRecords = append(allRecords, records...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	var writeStats []vectorstore.WriteStats
	if p.deps.VectorStore != nil {
		writeStats = p.deps.VectorStore.IndexBatch(ctx, contact, allRecords)
	}

	return Summary{
		RunID:              runID,
		Contact:            contact,
		Extraction:         stats,
		ConversationsTotal: len(redactedConvIDs),
		ChunksTotal:        len(redactedChunks),
		RedactionReport:    redactionReport,
		MissingAttachments: missingAttachments,
		CloudEligible:      cloudEligible,
		CloudBlockReasons:  cloudIssues,
		WriteStats:         writeStats,
		ConversationErrors: append(validationErrors, convErrors...),
	}, nil
}

// processConversation runs one conversation's chunks sequentially through
// enrichment, the bridge, and the graph, threading the rolling state each
// stage requires, and returns the index records it produced. Sequential by
// necessity: EnrichmentContext, the graph's predecessor chaining, and the
// bridge's window all carry state from one chunk to the next.
func (p *Pipeline) processConversation(ctx context.Context, contact, convID string, chunks []domain.Chunk, enableCloud bool) ([]vectorstore.Record, error) {
	enrichCtx := domain.NewEnrichmentContext()
	var historyWindow []string
	var bridgeWindow []bridge.WindowEntry
	var prevNode *domain.GraphNode
	var prevLabels []string

	records := make([]vectorstore.Record, 0, len(chunks))

	for i := range chunks {
		chunk := chunks[i]

		result := p.deps.Enrichment.Run(ctx, chunk, enrichCtx, historyWindow)
		tier := decidePrivacyTier(result.Enrichment)
		enrichment.ApplyToChunk(&chunk, result, tier)

		historyWindow = append(historyWindow, chunk.Text)
		if len(historyWindow) > p.deps.HistoryWindow {
			historyWindow = historyWindow[len(historyWindow)-p.deps.HistoryWindow:]
		}

		bridgeWindow = append(bridgeWindow, bridge.WindowEntry{Enrichment: result.Enrichment})
		if len(bridgeWindow) > p.deps.HistoryWindow {
			bridgeWindow = bridgeWindow[len(bridgeWindow)-p.deps.HistoryWindow:]
		}

		if p.deps.Bridge != nil {
			if _, err := p.deps.Bridge.CreateHierarchicalContext(result.Enrichment, bridgeWindow, enableCloud); err != nil {
				p.deps.Logger.Warn("hierarchical context failed", zap.Error(err),
					zap.String("chunk_id", chunk.ChunkID), zap.String("conv_id", convID))
			}
		}

		node := domain.GraphNode{
			NodeID:    uuid.NewString(),
			ConvID:    convID,
			ChunkID:   chunk.ChunkID,
			Timestamp: chunk.Meta.DateRange.End,
			Labels:    result.Enrichment.LabelsCoarse,
		}
		if p.deps.GraphEngine != nil {
			if err := p.deps.GraphEngine.RecordChunk(ctx, contact, node, prevNode, prevLabels); err != nil {
				return nil, fmt.Errorf("record chunk %s: %w", chunk.ChunkID, err)
			}
		}
		prevNode = &node
		prevLabels = node.Labels

		embedding := p.embedChunk(chunk)
		records = append(records, vectorstore.Record{
			ChunkID:         chunk.ChunkID,
			ConvID:          convID,
			Contact:         contact,
			Text:            chunk.Text,
			Embedding:       embedding,
			LabelsCoarse:    chunk.Meta.LabelsCoarse,
			LabelsFineLocal: chunk.Meta.LabelsFineLocal,
			MessageIDs:      chunk.Meta.MessageIDs,
			Tier:            tier,
			IndexedAt:       time.Now().UTC(),
		})
	}

	return records, nil
}

func (p *Pipeline) embedChunk(chunk domain.Chunk) []float32 {
	if p.deps.Embedder == nil {
		return nil
	}
	return p.deps.Embedder.EmbedChunkText(chunk.Text, chunk.Meta.LabelsCoarse, chunk.Meta.LabelsFineLocal)
}

// decidePrivacyTier mirrors vectorstore's own (unexported) inferPrivacyTier:
// any fine-local label promotes a chunk to local_only, a coarse label
// without any fine ones is cloud_safe, and no labels at all is
// pattern_only. Duplicated here rather than exported from vectorstore
// because enrichment.ApplyToChunk must receive the tier as an input (it
// only writes meta.labels_fine_local when the tier already says
// local_only) — the decision has to happen before the store ever sees the
// chunk. See DESIGN.md.
func decidePrivacyTier(e domain.Enrichment) domain.PrivacyTier {
	if len(e.LabelsFine) > 0 {
		return domain.TierLocalOnly
	}
	if len(e.LabelsCoarse) > 0 {
		return domain.TierCloudSafe
	}
	return domain.TierPatternOnly
}

// groupByConv partitions canonical messages by conversation, preserving
// each conversation's relative message order, since chunker.Chunk assumes
// every message it receives shares one conv_id.
func groupByConv(messages []domain.CanonicalMessage) map[string][]domain.CanonicalMessage {
	out := make(map[string][]domain.CanonicalMessage)
	for _, m := range messages {
		out[m.ConvID] = append(out[m.ConvID], m)
	}
	return out
}

// groupChunksByConv partitions chunks by conversation, preserving the
// order chunker.Chunk produced within each conversation.
func groupChunksByConv(chunks []domain.Chunk) map[string][]domain.Chunk {
	out := make(map[string][]domain.Chunk)
	for _, c := range chunks {
		out[c.ConvID] = append(out[c.ConvID], c)
	}
	return out
}
