package extractor

import (
	"fmt"
	"time"

	"chatlens/internal/domain"
)

// BuildMissingAttachmentsReport walks the folded message set and flags every
// attachment whose file the exists check reports absent (spec.md §6's
// "Missing attachments report"). exists is injected rather than calling
// os.Stat directly so this stays a pure, source-agnostic function like the
// rest of this package — the SQLite/Instagram/WhatsApp front-end supplies
// the real filesystem check at the call site.
func BuildMissingAttachmentsReport(
	contact string,
	messages []domain.CanonicalMessage,
	exists func(path string) bool,
	now time.Time,
) domain.MissingAttachmentsReport {
	perConv := make(map[string]int)
	var items []domain.MissingAttachmentItem

	for _, msg := range messages {
		for _, att := range msg.Attachments {
			if att.Path != "" && exists(att.Path) {
				continue
			}
			items = append(items, domain.MissingAttachmentItem{
				ConvGUID: msg.ConvID,
				MsgID:    msg.MsgID,
				Filename: att.Filename,
			})
			perConv[msg.ConvID]++
		}
	}

	guidance := "no missing attachments"
	if len(items) > 0 {
		guidance = fmt.Sprintf(
			"%d attachment(s) across %d conversation(s) could not be located; "+
				"re-export the source with attachments included, or confirm the "+
				"attachment directory path passed to the extractor matches the export.",
			len(items), len(perConv),
		)
	}

	return domain.MissingAttachmentsReport{
		GeneratedAt: now,
		Contact:     contact,
		Items:       items,
		Summary: domain.MissingAttachmentsSummary{
			Total:           len(items),
			PerConversation: perConv,
		},
		RemediationGuidance: guidance,
	}
}
