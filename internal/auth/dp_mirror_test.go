package auth

import (
	"errors"
	"testing"
)

func TestNewDPLedgerMirrorNilClient(t *testing.T) {
	if m := NewDPLedgerMirror(nil); m != nil {
		t.Fatalf("expected nil mirror for nil client")
	}
}

func TestDPLedgerMirrorNilReceiverDegradesGracefully(t *testing.T) {
	var m *DPLedgerMirror
	if err := m.Spend("fingerprint", 0.5, 1.0); err != nil {
		t.Fatalf("expected nil-mirror Spend to always succeed, got %v", err)
	}
	if got := m.Spent("fingerprint"); got != 0 {
		t.Fatalf("expected nil-mirror Spent to report 0, got %v", got)
	}
}

func TestDPLedgerMirrorIgnoresEmptyFingerprint(t *testing.T) {
	m := &DPLedgerMirror{client: nil, prefix: "auth:dp:spend:"}
	if err := m.Spend("   ", 0.5, 1.0); err != nil {
		t.Fatalf("expected empty fingerprint to be a no-op, got %v", err)
	}
}

func TestErrDPBudgetExhaustedMessage(t *testing.T) {
	if !errors.Is(ErrDPBudgetExhausted, ErrDPBudgetExhausted) {
		t.Fatalf("expected ErrDPBudgetExhausted to be comparable to itself")
	}
	if ErrDPBudgetExhausted.Error() == "" {
		t.Fatalf("expected non-empty error message")
	}
}
