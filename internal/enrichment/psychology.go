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

const psychologyPassTemperature = 0.15

type psychologyResponse struct {
	CoarseLabels      []string `json:"coarse_labels"`
	FineLabels        []string `json:"fine_labels"`
	PrimaryEmotion    string   `json:"primary_emotion"`
	EmotionConfidence float64  `json:"emotion_confidence"`
	AttachmentStyle   string   `json:"attachment_style"`
	IntimacyLevel     int      `json:"intimacy_level"`
	Needs             struct {
		Autonomy    float64 `json:"autonomy"`
		Competence  float64 `json:"competence"`
		Relatedness float64 `json:"relatedness"`
	} `json:"needs"`
	DefenseMechanisms []string `json:"defense_mechanisms"`
	RelationalPower   float64  `json:"relational_power"`
	Confidence        float64  `json:"confidence"`
}

func buildPsychologyPrompt(priorLabels []string, chunkText string) string {
	var sb strings.Builder
	sb.WriteString("=== ROLE ===\n")
	sb.WriteString("You are a psychologist analyzing a conversation excerpt for underlying dynamics.\n\n")
	sb.WriteString("=== PRIOR LABELS ===\n")
	sb.WriteString(strings.Join(priorLabels, ", "))
	sb.WriteString("\n\n=== TASK ===\n")
	sb.WriteString("Return ONLY a JSON object with: coarse_labels (cloud-safe array), " +
		"fine_labels (sensitive, local-only array), primary_emotion " +
		"(joy|anger|fear|sadness|disgust|surprise|neutral), emotion_confidence (0-1), " +
		"attachment_style (string), intimacy_level (1-5), needs (autonomy, competence, " +
		"relatedness each in [-1,1]), defense_mechanisms (array), relational_power (-1 to 1), " +
		"confidence (0-1).\n\n")
	sb.WriteString("=== EXCERPT ===\n")
	sb.WriteString(chunkText)
	return sb.String()
}

// RunPsychologyPass implements Pass 3 — the deep pass. Labels are validated
// against the taxonomy (unknown dropped), co-occurrence rules expand the
// set, and the result is split back into coarse/fine (spec.md §4.2).
// Temperature <= 0.15.
func RunPsychologyPass(ctx context.Context, client llm.ModelClient, model string, tax domain.LabelTaxonomy, priorLabels []string, chunkText string) (domain.PassResult, psychologyResponse) {
	start := time.Now()
	req := llm.ChatRequest{
		Model: model,
		Messages: []llm.ChatMessage{
			{Role: "user", Content: buildPsychologyPrompt(priorLabels, chunkText)},
		},
		Options: llm.ChatOptions{Temperature: psychologyPassTemperature},
	}

	resp, err := client.Chat(ctx, req)
	if err != nil {
		return domain.PassResult{
			Name:             "psychology",
			Duration:         time.Since(start),
			ValidationErrors: []string{fmt.Sprintf("model call failed: %v", err)},
		}, psychologyResponse{}
	}

	var parsed psychologyResponse
	if err := json.Unmarshal([]byte(extractModelJSON(resp.Message.Content)), &parsed); err != nil {
		return domain.PassResult{
			Name:             "psychology",
			Duration:         time.Since(start),
			ValidationErrors: []string{fmt.Sprintf("parse psychology response: %v", err)},
		}, psychologyResponse{}
	}

	all := append(append([]string{}, parsed.CoarseLabels...), parsed.FineLabels...)
	var validationErrors []string
	var normalized []string
	for _, raw := range all {
		n := tax.Normalize(raw)
		if !tax.Known(n) {
			validationErrors = append(validationErrors, fmt.Sprintf("unknown label dropped: %s", raw))
			continue
		}
		normalized = append(normalized, n)
	}

	expanded := tax.ExpandCoOccurrence(normalized)

	return domain.PassResult{
		Name:             "psychology",
		Labels:           expanded,
		Confidence:       parsed.Confidence,
		Duration:         time.Since(start),
		ValidationErrors: validationErrors,
		Metadata: map[string]interface{}{
			"primary_emotion":    parsed.PrimaryEmotion,
			"emotion_confidence": parsed.EmotionConfidence,
			"attachment_style":   parsed.AttachmentStyle,
			"intimacy_level":     parsed.IntimacyLevel,
			"relational_power":   parsed.RelationalPower,
		},
	}, parsed
}
