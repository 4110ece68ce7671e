package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"chatlens/internal/domain"
	"chatlens/internal/llm"
)

const relationshipsPassTemperature = 0.2

type relationshipsResponse struct {
	RelationshipStage   string   `json:"relationship_stage"`
	InteractionQuality  string   `json:"interaction_quality"`
	TrustLevel          int      `json:"trust_level"`
	ConflictStyle       string   `json:"conflict_style"`
	TemporalFlow        string   `json:"temporal_flow"`
	EmotionalTrajectory string   `json:"emotional_trajectory"`
	AttachmentBehaviors []string `json:"attachment_behaviors"`
	LongitudinalLabels  []string `json:"longitudinal_labels"`
	Confidence          float64  `json:"confidence"`
}

func buildRelationshipsPrompt(unionLabels []string, historyWindow []string, chunkText string) string {
	var sb strings.Builder
	sb.WriteString("=== ROLE ===\n")
	sb.WriteString("You are analyzing the relational trajectory of a conversation.\n\n")
	sb.WriteString("=== LABELS SO FAR ===\n")
	sb.WriteString(strings.Join(unionLabels, ", "))
	sb.WriteString("\n\n")
	if len(historyWindow) > 0 {
		sb.WriteString("=== RECENT HISTORY ===\n")
		sb.WriteString(strings.Join(historyWindow, "\n---\n"))
		sb.WriteString("\n\n")
	}
	sb.WriteString("=== TASK ===\n")
	sb.WriteString("Return ONLY a JSON object with: relationship_stage " +
		"(forming|storming|norming|performing|mourning), interaction_quality (string), " +
		"trust_level (1-5), conflict_style (string), temporal_flow (string), " +
		"emotional_trajectory (string), attachment_behaviors (array), " +
		"longitudinal_labels (array, e.g. trust_building, intimacy_deepening), confidence (0-1).\n\n")
	sb.WriteString("=== EXCERPT ===\n")
	sb.WriteString(chunkText)
	return sb.String()
}

// RunRelationshipsPass implements Pass 4 — Relationships: the union of
// prior labels plus an optional history window of prior enriched chunks.
// Temperature <= 0.2.
func RunRelationshipsPass(ctx context.Context, client llm.ModelClient, model string, unionLabels []string, historyWindow []string, chunkText string) domain.PassResult {
	start := time.Now()
	req := llm.ChatRequest{
		Model: model,
		Messages: []llm.ChatMessage{
			{Role: "user", Content: buildRelationshipsPrompt(unionLabels, historyWindow, chunkText)},
		},
		Options: llm.ChatOptions{Temperature: relationshipsPassTemperature},
	}

	resp, err := client.Chat(ctx, req)
	if err != nil {
		return domain.PassResult{
			Name:             "relationships",
			Duration:         time.Since(start),
			ValidationErrors: []string{fmt.Sprintf("model call failed: %v", err)},
		}
	}

	var parsed relationshipsResponse
	if err := json.Unmarshal([]byte(extractModelJSON(resp.Message.Content)), &parsed); err != nil {
		return domain.PassResult{
			Name:             "relationships",
			Duration:         time.Since(start),
			ValidationErrors: []string{fmt.Sprintf("parse relationships response: %v", err)},
		}
	}

	labels := append([]string{}, parsed.LongitudinalLabels...)
	if parsed.RelationshipStage != "" {
		labels = append(labels, "stage_"+parsed.RelationshipStage)
	}

	return domain.PassResult{
		Name:       "relationships",
		Labels:     labels,
		Confidence: parsed.Confidence,
		Duration:   time.Since(start),
		Metadata: map[string]interface{}{
			"relationship_stage":   parsed.RelationshipStage,
			"interaction_quality":  parsed.InteractionQuality,
			"trust_level":          parsed.TrustLevel,
			"conflict_style":       parsed.ConflictStyle,
			"temporal_flow":        parsed.TemporalFlow,
			"emotional_trajectory": parsed.EmotionalTrajectory,
			"attachment_behaviors": parsed.AttachmentBehaviors,
		},
	}
}
