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

const structurePassTemperature = 0.1

type structureResponse struct {
	SpeechAct           string `json:"speech_act"`
	CommunicationStyle  string `json:"communication_style"`
	TurnPattern         string `json:"turn_pattern"`
	BoundarySignal      string `json:"boundary_signal"`
	Confidence          float64 `json:"confidence"`
}

// buildStructurePrompt assembles Pass 2's prompt with the teacher's
// section-marker idiom (see clone_prompt_builder.go), generalized from
// persona-simulation sections to analysis-instruction sections.
func buildStructurePrompt(chunkText string) string {
	var sb strings.Builder
	sb.WriteString("=== ROLE ===\n")
	sb.WriteString("You are a conversation-structure classifier.\n\n")
	sb.WriteString("=== TASK ===\n")
	sb.WriteString("Classify the following conversation excerpt and return ONLY a JSON object:\n")
	sb.WriteString(`{"speech_act": "ask|inform|promise|refuse|apologize|propose|meta", ` +
		`"communication_style": "direct|indirect|mixed", ` +
		`"turn_pattern": "initiating|responding|maintaining|closing", ` +
		`"boundary_signal": "none|setting|testing|crossing", ` +
		`"confidence": 0.0}` + "\n\n")
	sb.WriteString("=== EXCERPT ===\n")
	sb.WriteString(chunkText)
	return sb.String()
}

// RunStructurePass implements Pass 2 — Structure: a single model call at
// temperature <= 0.1, parsed and normalized through the taxonomy synonym
// map (spec.md §4.2).
func RunStructurePass(ctx context.Context, client llm.ModelClient, model string, tax domain.LabelTaxonomy, chunkText string) domain.PassResult {
	start := time.Now()
	req := llm.ChatRequest{
		Model: model,
		Messages: []llm.ChatMessage{
			{Role: "user", Content: buildStructurePrompt(chunkText)},
		},
		Options: llm.ChatOptions{Temperature: structurePassTemperature},
	}

	resp, err := client.Chat(ctx, req)
	if err != nil {
		return domain.PassResult{
			Name:             "structure",
			Duration:         time.Since(start),
			ValidationErrors: []string{fmt.Sprintf("model call failed: %v", err)},
		}
	}

	var parsed structureResponse
	if err := json.Unmarshal([]byte(extractModelJSON(resp.Message.Content)), &parsed); err != nil {
		return domain.PassResult{
			Name:             "structure",
			Duration:         time.Since(start),
			ValidationErrors: []string{fmt.Sprintf("parse structure response: %v", err)},
		}
	}

	labels := []string{}
	for _, raw := range []string{parsed.SpeechAct, parsed.CommunicationStyle, parsed.TurnPattern, parsed.BoundarySignal} {
		if raw == "" {
			continue
		}
		labels = append(labels, tax.Normalize(raw))
	}

	return domain.PassResult{
		Name:     "structure",
		Labels:   labels,
		Confidence: parsed.Confidence,
		Duration: time.Since(start),
		Metadata: map[string]interface{}{
			"speech_act":          parsed.SpeechAct,
			"communication_style": parsed.CommunicationStyle,
			"turn_pattern":        parsed.TurnPattern,
			"boundary_signal":     parsed.BoundarySignal,
		},
	}
}
