package extractor

import (
	"testing"
	"time"
)

func TestAppleTimestampBoundary(t *testing.T) {
	// Exactly the threshold must be interpreted as seconds.
	got := AppleTimestampToUTC(100_000_000_000)
	want := time.Unix(appleEpoch.Unix()+100_000_000_000, 0)
	if !got.Equal(want) {
		t.Fatalf("expected seconds interpretation at boundary, got %v want %v", got, want)
	}

	// Comfortably above threshold must be interpreted as nanoseconds.
	gotNanos := AppleTimestampToUTC(200_000_000_000)
	wantNanos := appleEpoch.Add(200_000_000_000 * time.Nanosecond)
	if !gotNanos.Equal(wantNanos) {
		t.Fatalf("expected nanoseconds interpretation above boundary, got %v want %v", gotNanos, wantNanos)
	}
}

func TestFoldReactionFolding(t *testing.T) {
	now := time.Now().UTC()
	text := "Hi"
	empty := ""
	rows := []PreparedRow{
		{GUID: "G1", ConvID: "C1", Sender: "alice", Timestamp: now, Text: &text},
		{GUID: "G2", ConvID: "C1", Sender: "+15551234567", Timestamp: now.Add(time.Second),
			Text: &empty, IsReaction: true, AssociatedGUID: "G1", AssociatedType: 2001},
	}

	messages, stats := Fold(rows)
	if len(messages) != 1 {
		t.Fatalf("expected one emitted message, got %d", len(messages))
	}
	m := messages[0]
	if m.MsgID != "G1" {
		t.Fatalf("expected msg_id G1, got %s", m.MsgID)
	}
	if len(m.Reactions) != 1 {
		t.Fatalf("expected one folded reaction, got %d", len(m.Reactions))
	}
	if m.Reactions[0].From != "+15551234567" {
		t.Fatalf("unexpected reaction origin: %+v", m.Reactions[0])
	}
	if m.Reactions[0].Timestamp.Before(m.Timestamp) {
		t.Fatalf("reaction timestamp must be >= target message timestamp")
	}
	if stats.ReactionsFolded != 1 {
		t.Fatalf("expected ReactionsFolded=1, got %d", stats.ReactionsFolded)
	}
}

func TestFoldReplyChain(t *testing.T) {
	now := time.Now().UTC()
	t4, t5, t6 := "M4", "M5", "M6"
	text := "hello"
	rows := []PreparedRow{
		{GUID: t4, ConvID: "C1", Sender: "a", Timestamp: now, Text: &text},
		{GUID: t5, ConvID: "C1", Sender: "b", Timestamp: now.Add(time.Second), Text: &text, ReplyToGUID: &t4},
		{GUID: t6, ConvID: "C1", Sender: "a", Timestamp: now.Add(2 * time.Second), Text: &text, ReplyToGUID: &t5},
	}

	messages, stats := Fold(rows)
	if stats.UnresolvedReplies != 0 {
		t.Fatalf("expected 0 unresolved replies, got %d", stats.UnresolvedReplies)
	}

	byID := make(map[string]int)
	for i, m := range messages {
		byID[m.MsgID] = i
	}
	m5 := messages[byID["M5"]]
	m6 := messages[byID["M6"]]
	if m5.ReplyToMsgID == nil || *m5.ReplyToMsgID != "M4" {
		t.Fatalf("expected M5 reply_to M4, got %+v", m5.ReplyToMsgID)
	}
	if m6.ReplyToMsgID == nil || *m6.ReplyToMsgID != "M5" {
		t.Fatalf("expected M6 reply_to M5, got %+v", m6.ReplyToMsgID)
	}
}

func TestFoldUnresolvedReply(t *testing.T) {
	now := time.Now().UTC()
	missing := "does-not-exist"
	text := "hi"
	rows := []PreparedRow{
		{GUID: "M1", ConvID: "C1", Sender: "a", Timestamp: now, Text: &text, ReplyToGUID: &missing},
	}
	messages, stats := Fold(rows)
	if stats.UnresolvedReplies != 1 {
		t.Fatalf("expected 1 unresolved reply, got %d", stats.UnresolvedReplies)
	}
	if messages[0].ReplyToMsgID != nil {
		t.Fatalf("expected nulled reply_to_msg_id, got %v", *messages[0].ReplyToMsgID)
	}
}

func TestFoldEmptyConversation(t *testing.T) {
	messages, stats := Fold(nil)
	if len(messages) != 0 {
		t.Fatalf("expected empty message list, got %d", len(messages))
	}
	if stats.MessagesTotal != 0 {
		t.Fatalf("expected zero messages_total, got %d", stats.MessagesTotal)
	}
}
