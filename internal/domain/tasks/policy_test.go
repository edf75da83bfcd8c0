package tasks

import "testing"

func TestClassifyDefaults(t *testing.T) {
	policy := DefaultStatusPolicy()

	cases := []struct {
		status string
		want   StatusClass
	}{
		{"submitted", StatusActive},
		{"confirmed", StatusTerminal},
		{"submitted-confirmed", StatusTerminal},
		{"  Confirmed ", StatusTerminal},
		{"declined", StatusHidden},
		{"DECLINED", StatusHidden},
		{"pending-review", StatusActive},
		{"", StatusActive},
	}

	for _, tc := range cases {
		if got := policy.Classify(tc.status); got != tc.want {
			t.Fatalf("Classify(%q) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestClassifyUnknownStatusStaysActive(t *testing.T) {
	policy := NewStatusPolicy([]string{"confirmed"}, nil)

	// Terminal-looking but undeclared values must not be guessed terminal.
	for _, status := range []string{"confirmed-final", "done", "completed"} {
		if got := policy.Classify(status); got != StatusActive {
			t.Fatalf("Classify(%q) = %v, want StatusActive", status, got)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	policy := NewStatusPolicy([]string{"Confirmed", " settled ", ""}, nil)

	got := policy.TerminalStatuses()
	if len(got) != 2 {
		t.Fatalf("TerminalStatuses() len = %d, want 2", len(got))
	}
	seen := map[string]bool{}
	for _, status := range got {
		seen[status] = true
	}
	if !seen["confirmed"] || !seen["settled"] {
		t.Fatalf("TerminalStatuses() = %v", got)
	}
}
