// Command pipeline is the run front-end: it reads a batch of prepared
// message rows from a JSON file and drives one full run of the analysis
// pipeline (extract -> chunk -> redact -> enrich -> bridge -> index ->
// graph) against it. The iMessage SQLite reader that would normally
// produce these rows is a thin, external collaborator (spec.md's own
// scoping: "the iMessage SQLite extractor (specified only by the
// canonical message contract it must produce)... command-line front-end
// and config loading" are out of scope), so this front end accepts the
// row contract directly as JSON rather than reading a live chat database.
//
// Exit semantics follow spec.md §7: 0 on full success, non-zero on any
// hard-fail or preflight-cloud-check block.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"chatlens/internal/bridge"
	"chatlens/internal/chunker"
	"chatlens/internal/config"
	"chatlens/internal/db"
	"chatlens/internal/domain"
	"chatlens/internal/email"
	"chatlens/internal/embed"
	"chatlens/internal/enrichment"
	"chatlens/internal/extractor"
	"chatlens/internal/graph"
	"chatlens/internal/llm"
	"chatlens/internal/pipeline"
	"chatlens/internal/policy"
	"chatlens/internal/repository"
	"chatlens/internal/vectorstore"
)

// inputRow is the JSON wire shape for one prepared message row. It mirrors
// extractor.PreparedRow field-for-field so the front end stays a thin
// decode-and-forward step rather than another extraction stage.
type inputRow struct {
	GUID           string              `json:"guid"`
	ConvID         string              `json:"conv_id"`
	Platform       string              `json:"platform"`
	Timestamp      time.Time           `json:"timestamp"`
	Sender         string              `json:"sender"`
	SenderID       string              `json:"sender_id"`
	IsMe           bool                `json:"is_me"`
	Text           *string             `json:"text,omitempty"`
	IsReaction     bool                `json:"is_reaction,omitempty"`
	AssociatedGUID string              `json:"associated_guid,omitempty"`
	AssociatedType int                 `json:"associated_type,omitempty"`
	ReplyToGUID    *string             `json:"reply_to_guid,omitempty"`
	Attachments    []domain.Attachment `json:"attachments,omitempty"`
	SourcePath     string              `json:"source_path,omitempty"`
}

func (r inputRow) toPreparedRow() extractor.PreparedRow {
	return extractor.PreparedRow{
		GUID:           r.GUID,
		ConvID:         r.ConvID,
		Platform:       r.Platform,
		Timestamp:      r.Timestamp,
		Sender:         r.Sender,
		SenderID:       r.SenderID,
		IsMe:           r.IsMe,
		Text:           r.Text,
		IsReaction:     r.IsReaction,
		AssociatedGUID: r.AssociatedGUID,
		AssociatedType: r.AssociatedType,
		ReplyToGUID:    r.ReplyToGUID,
		Attachments:    r.Attachments,
		SourcePath:     r.SourcePath,
	}
}

func main() {
	os.Exit(run())
}

func run() int {
	inputPath := flag.String("input", "", "path to a JSON file containing an array of prepared message rows")
	contact := flag.String("contact", "", "contact identifier this run belongs to")
	runID := flag.String("run-id", "", "optional run id; a UUID is generated when empty")
	saltPath := flag.String("salt-file", "chatlens.salt", "path to the persisted pseudonymization salt file (64 hex chars)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: loading .env: %v\n", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if *inputPath == "" || *contact == "" {
		logger.Error("missing required flags", zap.String("usage", "pipeline -input rows.json -contact <id>"))
		return 1
	}

	rows, err := loadRows(*inputPath)
	if err != nil {
		logger.Error("load input rows", zap.Error(err))
		return 1
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Error("db connect", zap.Error(err))
		return 1
	}
	defer pool.Close()

	salt, err := loadOrCreateSaltFile(*saltPath)
	if err != nil {
		logger.Error("load salt", zap.Error(err))
		return 1
	}
	saltStore := policy.NewSaltStore(func() ([]byte, error) { return salt, nil })
	resolvedSalt, err := saltStore.Salt()
	if err != nil {
		logger.Error("resolve salt", zap.Error(err))
		return 1
	}

	pol := policy.Policy{
		Threshold:     cfg.PolicyThreshold,
		StrictMode:    cfg.PolicyStrictMode,
		BlockHardFail: cfg.PolicyBlockHardFail,
		Pseudonymize:  cfg.PolicyPseudonymize,
		DetectNames:   cfg.PolicyDetectNames,
		OpaqueTokens:  cfg.PolicyOpaqueTokens,
		EnableDP:      cfg.PolicyEnableDP,
		DPEpsilon:     cfg.PolicyDPEpsilon,
		DPDelta:       cfg.PolicyDPDelta,
	}
	shield := policy.NewShield(pol, resolvedSalt, nil)

	httpClient := llm.NewHTTPClient(cfg.ModelBaseURL, nil, cfg.MaxConcurrentRequests, llm.RetryPolicy{
		MaxAttempts: cfg.RetryAttempts,
		InitialWait: time.Duration(cfg.BackoffInitialS * float64(time.Second)),
		Timeout:     time.Duration(cfg.RequestTimeoutS) * time.Second,
	})
	enrich := enrichment.NewPipeline(httpClient, cfg.ModelName, domain.DefaultLabelTaxonomy(), enrichment.DefaultConfidenceBand())

	br, err := bridge.NewBridge(resolvedSalt, cfg.PolicyDPEpsilon, cfg.PolicyEnableDP)
	if err != nil {
		logger.Error("new bridge", zap.Error(err))
		return 1
	}

	vecStore := vectorstore.NewStore(pool)
	graphEngine := graph.NewEngine(graph.NewStore(pool))
	reports := repository.NewPgReportRepository(pool)

	emailSender := email.NewDisabledSender("smtp not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	p := pipeline.New(pipeline.Dependencies{
		Shield:                shield,
		ChunkOpts:             chunker.DefaultOptions(),
		Enrichment:            enrich,
		Bridge:                br,
		VectorStore:           vecStore,
		GraphEngine:           graphEngine,
		Embedder:              embed.NewEmbedder(),
		Reports:               reports,
		Logger:                logger,
		Concurrency:           cfg.MaxConcurrentRequests,
		EnableCloudProcessing: false,
	})

	prepared := make([]extractor.PreparedRow, 0, len(rows))
	for _, r := range rows {
		prepared = append(prepared, r.toPreparedRow())
	}

	summary, err := p.Run(ctx, *runID, *contact, prepared)
	if err != nil {
		logger.Error("run failed", zap.Error(err))
		return 1
	}

	logger.Info("run complete",
		zap.String("run_id", summary.RunID),
		zap.Int("conversations", summary.ConversationsTotal),
		zap.Int("chunks", summary.ChunksTotal),
		zap.Bool("cloud_eligible", summary.CloudEligible),
		zap.Strings("cloud_block_reasons", summary.CloudBlockReasons),
		zap.Strings("conversation_errors", summary.ConversationErrors),
	)

	if cfg.NotifyTo != "" {
		notice := email.RunCompletionNotice{
			RunID:              summary.RunID,
			Contact:            summary.Contact,
			ConversationsTotal: summary.ConversationsTotal,
			ChunksTotal:        summary.ChunksTotal,
			RedactionCoverage:  summary.RedactionReport.Coverage,
			HardFailAlerts:     hardFailAlerts(summary.RedactionReport),
			CloudEligible:      summary.CloudEligible,
			CloudBlockReasons:  summary.CloudBlockReasons,
		}
		if err := emailSender.SendRunCompletion(ctx, cfg.NotifyTo, notice); err != nil {
			logger.Warn("run completion notification failed", zap.Error(err))
		}
	}

	if len(summary.RedactionReport.VisibilityLeaks) > 0 && pol.BlockHardFail {
		logger.Error("run blocked by confirmed-level hard-fail content", zap.Strings("chunk_ids", summary.RedactionReport.VisibilityLeaks))
		return 1
	}
	if !summary.CloudEligible && len(summary.CloudBlockReasons) > 0 {
		logger.Warn("run completed but is not cloud-eligible", zap.Strings("reasons", summary.CloudBlockReasons))
		return 1
	}

	return 0
}

// hardFailAlerts extracts the subset of a run's redaction notes that
// concern hard-fail content, for inclusion in the run-completion email.
func hardFailAlerts(report domain.RedactionReport) []string {
	var alerts []string
	for _, note := range report.Notes {
		if strings.Contains(note, "hard-fail") || strings.Contains(note, "quarantined") {
			alerts = append(alerts, note)
		}
	}
	return alerts
}

func loadRows(path string) ([]inputRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var rows []inputRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return rows, nil
}

// loadOrCreateSaltFile reads the persisted 64-hex-char salt file, or
// generates and persists a new one if it doesn't exist yet (spec.md §6
// "persisted state (a) pseudonymization salt file").
func loadOrCreateSaltFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return policy.DecodeSalt(string(data))
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read salt file %s: %w", path, err)
	}

	salt, genErr := policy.GenerateSalt()
	if genErr != nil {
		return nil, fmt.Errorf("generate salt: %w", genErr)
	}
	encoded := policy.EncodeSalt(salt)
	if writeErr := os.WriteFile(path, []byte(encoded), 0o600); writeErr != nil {
		return nil, fmt.Errorf("persist salt file %s: %w", path, writeErr)
	}
	return salt, nil
}
