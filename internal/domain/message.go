package domain

import "time"

// ReactionKind is the closed set of tapback/reaction kinds a source platform
// can emit, normalized to a stable vocabulary regardless of origin.
type ReactionKind string

const (
	ReactionLove      ReactionKind = "love"
	ReactionLike      ReactionKind = "like"
	ReactionDislike    ReactionKind = "dislike"
	ReactionLaugh      ReactionKind = "laugh"
	ReactionEmphasize  ReactionKind = "emphasize"
	ReactionQuestion   ReactionKind = "question"
)

// AttachmentKind classifies an attachment's media family.
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentVideo AttachmentKind = "video"
	AttachmentAudio AttachmentKind = "audio"
	AttachmentFile  AttachmentKind = "file"
)

// Reaction is a folded tapback targeting a message, never emitted standalone.
type Reaction struct {
	From      string       `json:"from"`
	Kind      ReactionKind `json:"kind"`
	Timestamp time.Time    `json:"timestamp"`
}

// Attachment describes a single file referenced by a message.
type Attachment struct {
	Kind     AttachmentKind `json:"kind"`
	Filename string         `json:"filename"`
	MimeType string         `json:"mime_type,omitempty"`
	UTI      string         `json:"uti,omitempty"`
	Path     string         `json:"path,omitempty"`
}

// SourceRef identifies where a message came from in its origin store.
type SourceRef struct {
	SourcePath string `json:"source_path"`
	SourceGUID string `json:"source_guid"`
}

// CanonicalMessage is the universal message representation produced by any
// extractor, regardless of source platform. See spec.md §3.
type CanonicalMessage struct {
	MsgID    string `json:"msg_id"`
	ConvID   string `json:"conv_id"`
	Platform string `json:"platform"`

	Timestamp time.Time `json:"timestamp"`

	Sender   string `json:"sender"`
	SenderID string `json:"sender_id"`
	IsMe     bool   `json:"is_me"`

	Text        *string      `json:"text,omitempty"`
	Reactions   []Reaction   `json:"reactions,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`

	ReplyToMsgID *string `json:"reply_to_msg_id,omitempty"`

	SourceRef   SourceRef              `json:"source_ref"`
	SourceMeta  map[string]interface{} `json:"source_meta,omitempty"`
}

// ExtractionStats accumulates the counters an extractor must report per run.
type ExtractionStats struct {
	MessagesTotal     int
	ReactionsFolded   int
	UnresolvedReplies int
}
