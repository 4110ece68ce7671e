package domain

import "testing"

func TestPrivacyBudgetValidate(t *testing.T) {
	cases := []struct {
		name    string
		budget  PrivacyBudget
		wantErr bool
	}{
		{"valid", PrivacyBudget{Epsilon: 1, Delta: 0, Sensitivity: 1}, false},
		{"zero epsilon", PrivacyBudget{Epsilon: 0, Delta: 0, Sensitivity: 1}, true},
		{"negative delta", PrivacyBudget{Epsilon: 1, Delta: -0.1, Sensitivity: 1}, true},
		{"delta equals one", PrivacyBudget{Epsilon: 1, Delta: 1, Sensitivity: 1}, true},
		{"zero sensitivity", PrivacyBudget{Epsilon: 1, Delta: 0, Sensitivity: 0}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.budget.Validate()
			if c.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !c.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
