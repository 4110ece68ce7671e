package chunker

import (
	"testing"
	"time"

	"chatlens/internal/domain"
)

func makeMessage(id, convID, sender, text string, ts time.Time) domain.CanonicalMessage {
	return domain.CanonicalMessage{
		MsgID: id, ConvID: convID, Sender: sender, Text: &text, Timestamp: ts,
	}
}

func TestChunkByTurnsRespectsSize(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var messages []domain.CanonicalMessage
	for i := 0; i < 45; i++ {
		messages = append(messages, makeMessage(
			"m"+string(rune('A'+i%26)), "C1", "alice", "hi", base.Add(time.Duration(i)*time.Minute)))
	}

	chunks := Chunk(messages, "run-1", Options{Method: domain.WindowTurns, TurnsPerChunk: 20})
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks (20+20+5), got %d", len(chunks))
	}
	if len(chunks[2].Meta.MessageIDs) != 5 {
		t.Fatalf("expected last chunk to hold remainder of 5, got %d", len(chunks[2].Meta.MessageIDs))
	}
}

func TestChunkByDaySplitsOnDayBoundary(t *testing.T) {
	day1 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)
	messages := []domain.CanonicalMessage{
		makeMessage("m1", "C1", "a", "hi", day1),
		makeMessage("m2", "C1", "b", "yo", day1.Add(time.Hour)),
		makeMessage("m3", "C1", "a", "next day", day2),
	}
	chunks := Chunk(messages, "run-1", Options{Method: domain.WindowDaily})
	if len(chunks) != 2 {
		t.Fatalf("expected 2 day-chunks, got %d", len(chunks))
	}
	if len(chunks[0].Meta.MessageIDs) != 2 {
		t.Fatalf("expected first day chunk to hold 2 messages, got %d", len(chunks[0].Meta.MessageIDs))
	}
}

func TestChunkIDDeterministic(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	messages := []domain.CanonicalMessage{makeMessage("m1", "C1", "a", "hi", base)}

	c1 := Chunk(messages, "run-1", DefaultOptions())
	c2 := Chunk(messages, "run-1", DefaultOptions())
	if c1[0].ChunkID != c2[0].ChunkID {
		t.Fatalf("expected deterministic chunk_id, got %s vs %s", c1[0].ChunkID, c2[0].ChunkID)
	}

	c3 := Chunk(messages, "run-2", DefaultOptions())
	if c1[0].ChunkID == c3[0].ChunkID {
		t.Fatalf("expected distinct chunk_id for distinct run_id")
	}
}

func TestChunkByTurnsOverlapSlidesWindow(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var messages []domain.CanonicalMessage
	for i := 0; i < 45; i++ {
		messages = append(messages, makeMessage(
			"m"+string(rune('A'+i%26)), "C1", "alice", "hi", base.Add(time.Duration(i)*time.Minute)))
	}

	chunks := Chunk(messages, "run-1", Options{Method: domain.WindowTurns, TurnsPerChunk: 20, Overlap: 5})
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks (step=15: 0-20, 15-35, 30-45), got %d", len(chunks))
	}
	if len(chunks[0].Meta.MessageIDs) != 20 {
		t.Fatalf("expected first chunk to hold 20 messages, got %d", len(chunks[0].Meta.MessageIDs))
	}
	overlap := 0
	for _, id := range chunks[1].Meta.MessageIDs {
		for _, prior := range chunks[0].Meta.MessageIDs {
			if id == prior {
				overlap++
			}
		}
	}
	if overlap == 0 {
		t.Fatalf("expected chunks 0 and 1 to share overlapping message IDs, got none")
	}
	if chunks[0].Meta.Window.Overlap != 5 {
		t.Fatalf("expected overlap recorded in window metadata, got %d", chunks[0].Meta.Window.Overlap)
	}
}

func TestChunkByTurnsOverlapGESizeDoesNotStall(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var messages []domain.CanonicalMessage
	for i := 0; i < 10; i++ {
		messages = append(messages, makeMessage(
			"m"+string(rune('A'+i%26)), "C1", "alice", "hi", base.Add(time.Duration(i)*time.Minute)))
	}

	chunks := Chunk(messages, "run-1", Options{Method: domain.WindowTurns, TurnsPerChunk: 3, Overlap: 5})
	if len(chunks) == 0 {
		t.Fatalf("expected chunking to make progress even when overlap >= size")
	}
}

func TestChunkEmptyInput(t *testing.T) {
	if chunks := Chunk(nil, "run-1", DefaultOptions()); chunks != nil {
		t.Fatalf("expected nil for empty input, got %v", chunks)
	}
}
