// Package chunker groups canonical messages into windowed Chunk records.
// Grounded on original_source/src/chatx/transformers/chunker.py for the
// windowing semantics (turns/daily/fixed), re-expressed as pure,
// embarrassingly-parallel Go functions per spec.md §5.
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"chatlens/internal/domain"
)

const schemaVersion = "1"

// Options configures windowing.
type Options struct {
	Method       domain.WindowMethod
	TurnsPerChunk int           // for WindowTurns
	FixedWindow   time.Duration // for WindowFixed
	Overlap       int
}

// DefaultOptions returns turn-based windowing with 20 messages per chunk,
// matching the source's default.
func DefaultOptions() Options {
	return Options{Method: domain.WindowTurns, TurnsPerChunk: 20}
}

// Chunk groups messages according to opts, deterministically deriving each
// chunk_id from (conv_id, method, index, run_id) per spec.md §3.
func Chunk(messages []domain.CanonicalMessage, runID string, opts Options) []domain.Chunk {
	if len(messages) == 0 {
		return nil
	}

	var groups [][]domain.CanonicalMessage
	switch opts.Method {
	case domain.WindowDaily:
		groups = groupByDay(messages)
	case domain.WindowFixed:
		groups = groupByFixedWindow(messages, opts.FixedWindow)
	default:
		groups = groupByTurns(messages, opts.TurnsPerChunk, opts.Overlap)
	}

	convID := messages[0].ConvID
	chunks := make([]domain.Chunk, 0, len(groups))
	for i, group := range groups {
		chunks = append(chunks, buildChunk(convID, group, runID, opts.Method, i, opts.Overlap))
	}
	return chunks
}

// groupByTurns slides a size-message window across messages, advancing by
// size-overlap each step so that overlap>0 produces real overlapping chunks
// rather than just recording the field, matching
// original_source/src/chatx/transformers/chunker.py:156
// (range(0, len(sorted_messages), turns_per_chunk - stride)). The step is
// clamped to a minimum of 1 so an overlap >= size can't stall progress.
func groupByTurns(messages []domain.CanonicalMessage, size, overlap int) [][]domain.CanonicalMessage {
	if size <= 0 {
		size = 20
	}
	step := size - overlap
	if step < 1 {
		step = 1
	}
	var groups [][]domain.CanonicalMessage
	for i := 0; i < len(messages); i += step {
		end := i + size
		if end > len(messages) {
			end = len(messages)
		}
		groups = append(groups, messages[i:end])
		if end == len(messages) {
			break
		}
	}
	return groups
}

func groupByDay(messages []domain.CanonicalMessage) [][]domain.CanonicalMessage {
	var groups [][]domain.CanonicalMessage
	var current []domain.CanonicalMessage
	var currentDay string
	for _, m := range messages {
		day := m.Timestamp.Format("2006-01-02")
		if day != currentDay && len(current) > 0 {
			groups = append(groups, current)
			current = nil
		}
		currentDay = day
		current = append(current, m)
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

func groupByFixedWindow(messages []domain.CanonicalMessage, window time.Duration) [][]domain.CanonicalMessage {
	if window <= 0 {
		window = time.Hour
	}
	var groups [][]domain.CanonicalMessage
	var current []domain.CanonicalMessage
	var windowStart time.Time
	for _, m := range messages {
		if len(current) == 0 {
			windowStart = m.Timestamp
		} else if m.Timestamp.Sub(windowStart) > window {
			groups = append(groups, current)
			current = nil
			windowStart = m.Timestamp
		}
		current = append(current, m)
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

func buildChunk(convID string, group []domain.CanonicalMessage, runID string, method domain.WindowMethod, index, overlap int) domain.Chunk {
	var sb strings.Builder
	ids := make([]string, 0, len(group))
	wordCount := 0
	for _, m := range group {
		ids = append(ids, m.MsgID)
		text := ""
		if m.Text != nil {
			text = *m.Text
		}
		sb.WriteString(fmt.Sprintf("[%s] %s: %s\n", m.Timestamp.Format(time.RFC3339), m.Sender, text))
		wordCount += len(strings.Fields(text))
	}
	fullText := sb.String()

	start := group[0].Timestamp
	end := group[len(group)-1].Timestamp

	chunkID := deriveChunkID(convID, method, index, runID)
	sourceHash := deriveSourceHash(ids, start, end)

	return domain.Chunk{
		ChunkID: chunkID,
		ConvID:  convID,
		Text:    fullText,
		Meta: domain.ChunkMeta{
			Window:        domain.WindowDescriptor{Method: method, Index: index, Overlap: overlap},
			DateRange:     domain.DateRange{Start: start, End: end},
			MessageIDs:    ids,
			CharCount:     len(fullText),
			TokenEstimate: domain.TokenEstimate(wordCount),
		},
		Provenance: domain.ChunkProvenance{
			SchemaVersion: schemaVersion,
			RunID:         runID,
			SourceHash:    sourceHash,
		},
	}
}

func deriveChunkID(convID string, method domain.WindowMethod, index int, runID string) string {
	h := sha256.New()
	h.Write([]byte(convID))
	h.Write([]byte(string(method)))
	h.Write([]byte(strconv.Itoa(index)))
	h.Write([]byte(runID))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func deriveSourceHash(msgIDs []string, start, end time.Time) string {
	h := sha256.New()
	for _, id := range msgIDs {
		h.Write([]byte(id))
	}
	h.Write([]byte(start.Format(time.RFC3339Nano)))
	h.Write([]byte(end.Format(time.RFC3339Nano)))
	return hex.EncodeToString(h.Sum(nil))[:16]
}
