package extractor

import (
	"testing"
	"time"

	"chatlens/internal/domain"
)

func TestBuildMissingAttachmentsReportFlagsAbsentFiles(t *testing.T) {
	now := time.Now().UTC()
	messages := []domain.CanonicalMessage{
		{
			MsgID:  "G1",
			ConvID: "C1",
			Attachments: []domain.Attachment{
				{Filename: "photo.jpg", Path: "/export/photo.jpg"},
				{Filename: "clip.mov", Path: "/export/clip.mov"},
			},
		},
		{
			MsgID:  "G2",
			ConvID: "C1",
			Attachments: []domain.Attachment{
				{Filename: "voice.caf", Path: "/export/voice.caf"},
			},
		},
	}
	present := map[string]bool{"/export/photo.jpg": true}
	exists := func(path string) bool { return present[path] }

	report := BuildMissingAttachmentsReport("alice", messages, exists, now)

	if report.Summary.Total != 2 {
		t.Fatalf("expected 2 missing attachments, got %d", report.Summary.Total)
	}
	if report.Summary.PerConversation["C1"] != 2 {
		t.Fatalf("expected 2 missing attachments in C1, got %d", report.Summary.PerConversation["C1"])
	}
	if report.RemediationGuidance == "no missing attachments" {
		t.Fatalf("expected non-trivial remediation guidance")
	}

	var filenames []string
	for _, item := range report.Items {
		filenames = append(filenames, item.Filename)
	}
	wantPresent := map[string]bool{"clip.mov": true, "voice.caf": true}
	for _, f := range filenames {
		if !wantPresent[f] {
			t.Fatalf("unexpected missing-attachment filename %q", f)
		}
	}
	if len(filenames) != 2 {
		t.Fatalf("expected 2 filenames, got %+v", filenames)
	}
}

func TestBuildMissingAttachmentsReportAllPresent(t *testing.T) {
	now := time.Now().UTC()
	messages := []domain.CanonicalMessage{
		{MsgID: "G1", ConvID: "C1", Attachments: []domain.Attachment{{Filename: "a.jpg", Path: "/x/a.jpg"}}},
	}
	report := BuildMissingAttachmentsReport("alice", messages, func(string) bool { return true }, now)

	if report.Summary.Total != 0 {
		t.Fatalf("expected 0 missing attachments, got %d", report.Summary.Total)
	}
	if report.RemediationGuidance != "no missing attachments" {
		t.Fatalf("expected trivial remediation guidance, got %q", report.RemediationGuidance)
	}
}

func TestBuildMissingAttachmentsReportCountsEmptyPathAsMissing(t *testing.T) {
	now := time.Now().UTC()
	messages := []domain.CanonicalMessage{
		{MsgID: "G1", ConvID: "C1", Attachments: []domain.Attachment{{Filename: "a.jpg", Path: ""}}},
	}
	report := BuildMissingAttachmentsReport("alice", messages, func(string) bool { return false }, now)

	if report.Summary.Total != 1 {
		t.Fatalf("expected empty path to count as missing, got %d", report.Summary.Total)
	}
}
