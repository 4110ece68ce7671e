package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// RunCompletionNotice carries the run summary the SMTP notifier emails:
// the redaction coverage and hard-fail alerts an operator needs to decide
// whether to review a run before trusting its cloud-bound output.
type RunCompletionNotice struct {
	RunID              string
	Contact            string
	ConversationsTotal int
	ChunksTotal        int
	RedactionCoverage  float64
	HardFailAlerts     []string
	CloudEligible      bool
	CloudBlockReasons  []string
}

// Sender emails a run-completion notice to the configured operator
// address. Grounded on the teacher's internal/email.Sender, repurposed
// from one-time-password delivery to the optional run-completion
// notifier spec.md's ambient-stack expansion calls for.
type Sender interface {
	SendRunCompletion(ctx context.Context, toEmail string, notice RunCompletionNotice) error
}

type disabledSender struct {
	reason string
}

// NewDisabledSender returns a Sender that always fails, used when SMTP is
// not configured so callers don't need a nil check.
func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendRunCompletion(_ context.Context, _ string, _ RunCompletionNotice) error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}

// FormatRunCompletionBody renders a RunCompletionNotice as plain text,
// shared by every Sender implementation so the message body stays
// consistent regardless of transport.
func FormatRunCompletionBody(n RunCompletionNotice) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s for contact %s finished.\n\n", n.RunID, n.Contact)
	fmt.Fprintf(&b, "Conversations: %d\n", n.ConversationsTotal)
	fmt.Fprintf(&b, "Chunks: %d\n", n.ChunksTotal)
	fmt.Fprintf(&b, "Redaction coverage: %.4f\n", n.RedactionCoverage)
	fmt.Fprintf(&b, "Cloud eligible: %v\n", n.CloudEligible)
	if len(n.CloudBlockReasons) > 0 {
		b.WriteString("Cloud block reasons:\n")
		for _, reason := range n.CloudBlockReasons {
			fmt.Fprintf(&b, "  - %s\n", reason)
		}
	}
	if len(n.HardFailAlerts) > 0 {
		b.WriteString("\nHard-fail alerts:\n")
		for _, alert := range n.HardFailAlerts {
			fmt.Fprintf(&b, "  - %s\n", alert)
		}
	}
	return b.String()
}
