// Package extractor produces CanonicalMessage records from a source
// platform's raw rows. The spec scopes the iMessage SQLite reader itself as
// a thin, external collaborator: this package implements only the contract
// the extractor must honor — Apple timestamp conversion (see apple_time.go),
// reaction folding, and reply-chain resolution — against a source-agnostic
// PreparedRow, so a SQLite/Instagram/WhatsApp front-end can feed it without
// this package depending on any particular database driver.
package extractor

import (
	"fmt"
	"time"

	"chatlens/internal/domain"
)

// knownReactionKinds maps a platform's numeric associated_type code to the
// closed ReactionKind vocabulary. iMessage's tapback codes (2000 range) are
// the canonical example; other platforms map their own kind strings into
// the same set at the call site before building a PreparedRow.
var knownReactionKinds = map[int]domain.ReactionKind{
	2000: domain.ReactionLove,
	2001: domain.ReactionLike,
	2002: domain.ReactionDislike,
	2003: domain.ReactionLaugh,
	2004: domain.ReactionEmphasize,
	2005: domain.ReactionQuestion,
}

// PreparedRow is the source-agnostic shape a front-end must produce per
// source record before folding, with its timestamp already resolved to a
// UTC instant (typically via AppleTimestampToUTC for iMessage sources).
type PreparedRow struct {
	GUID           string
	ConvID         string
	Platform       string
	Timestamp      time.Time
	Sender         string
	SenderID       string
	IsMe           bool
	Text           *string
	IsReaction     bool
	AssociatedGUID string
	AssociatedType int
	ReplyToGUID    *string
	Attachments    []domain.Attachment
	SourcePath     string
	SourceMeta     map[string]interface{}
}

// Validate is a defensive check a front-end can call before Fold to reject
// obviously malformed rows (spec.md §7 SourceUnreadable is for the source
// as a whole; a malformed individual row is a SchemaValidation concern).
func Validate(row PreparedRow) error {
	if row.GUID == "" {
		return fmt.Errorf("row missing guid")
	}
	if row.ConvID == "" {
		return fmt.Errorf("row %s missing conv_id", row.GUID)
	}
	return nil
}

// Fold converts prepared rows into the canonical message set: reactions are
// folded into their target's Reactions list rather than emitted standalone
// (invariant a, spec.md §3), and reply_to_msg_id is resolved within the
// same conversation or nulled with the unresolved counter incremented
// (invariant b). Order of the non-reaction rows is preserved.
func Fold(rows []PreparedRow) ([]domain.CanonicalMessage, domain.ExtractionStats) {
	stats := domain.ExtractionStats{}

	byGUID := make(map[string]*domain.CanonicalMessage, len(rows))
	order := make([]string, 0, len(rows))
	replyTargets := make(map[string]string) // msg guid -> reply_to guid

	for _, row := range rows {
		if row.IsReaction {
			continue
		}
		msg := domain.CanonicalMessage{
			MsgID:       row.GUID,
			ConvID:      row.ConvID,
			Platform:    row.Platform,
			Timestamp:   row.Timestamp,
			Sender:      row.Sender,
			SenderID:    row.SenderID,
			IsMe:        row.IsMe,
			Text:        row.Text,
			SourceRef:   domain.SourceRef{SourcePath: row.SourcePath, SourceGUID: row.GUID},
			SourceMeta:  row.SourceMeta,
			Attachments: row.Attachments,
		}
		byGUID[row.GUID] = &msg
		order = append(order, row.GUID)
		if row.ReplyToGUID != nil {
			replyTargets[row.GUID] = *row.ReplyToGUID
		}
		stats.MessagesTotal++
	}

	// Fold reactions into their target's Reactions list.
	for _, row := range rows {
		if !row.IsReaction {
			continue
		}
		target, ok := byGUID[row.AssociatedGUID]
		if !ok {
			continue
		}
		kind, ok := knownReactionKinds[row.AssociatedType]
		if !ok {
			continue
		}
		target.Reactions = append(target.Reactions, domain.Reaction{
			From:      row.Sender,
			Kind:      kind,
			Timestamp: row.Timestamp,
		})
		stats.ReactionsFolded++
	}

	// Resolve reply chains within the emitted set.
	for guid, replyToGUID := range replyTargets {
		msg := byGUID[guid]
		if target, ok := byGUID[replyToGUID]; ok && target.ConvID == msg.ConvID {
			resolved := target.MsgID
			msg.ReplyToMsgID = &resolved
		} else {
			msg.ReplyToMsgID = nil
			stats.UnresolvedReplies++
		}
	}

	out := make([]domain.CanonicalMessage, 0, len(order))
	for _, guid := range order {
		out = append(out, *byGUID[guid])
	}
	return out, stats
}
