package domain

import "time"

// MissingAttachmentItem is one extracted message whose referenced
// attachment file could not be located in the export (spec.md §6).
type MissingAttachmentItem struct {
	ConvGUID string `json:"conv_guid"`
	MsgID    string `json:"msg_id"`
	Filename string `json:"filename"`
}

// MissingAttachmentsSummary aggregates MissingAttachmentsReport.Items by
// total and per-conversation counts.
type MissingAttachmentsSummary struct {
	Total         int            `json:"total"`
	PerConversation map[string]int `json:"per_conversation"`
}

// MissingAttachmentsReport is the extractor-stage completeness report
// (spec.md §6): which attachments a conversation export referenced but did
// not ship alongside the message data.
type MissingAttachmentsReport struct {
	GeneratedAt         time.Time                 `json:"generated_at"`
	Contact             string                    `json:"contact"`
	Items               []MissingAttachmentItem   `json:"items"`
	Summary             MissingAttachmentsSummary `json:"summary"`
	RemediationGuidance string                    `json:"remediation_guidance"`
}
