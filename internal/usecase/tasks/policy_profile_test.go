package tasks

import (
	"os"
	"path/filepath"
	"testing"

	domaintasks "taskproxy/internal/domain/tasks"
)

func TestLoadProfileEmptyPathUsesDefaults(t *testing.T) {
	profile, err := LoadProfile("")
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	if profile.Policy.Classify("confirmed") != domaintasks.StatusTerminal {
		t.Fatalf("default policy lost terminal set")
	}
	if len(profile.ExtractKeys) == 0 || len(profile.ContainerKeys) == 0 {
		t.Fatalf("default extraction keys missing")
	}
}

func TestLoadProfileFromTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.toml")
	content := `
[status]
terminal = ["settled", "paid-out"]
hidden = ["rejected"]

[extraction]
keys = ["submission_ref"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write policy file: %v", err)
	}

	profile, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}

	if profile.Policy.Classify("settled") != domaintasks.StatusTerminal {
		t.Fatalf("settled not terminal")
	}
	if profile.Policy.Classify("rejected") != domaintasks.StatusHidden {
		t.Fatalf("rejected not hidden")
	}
	// The built-in vocabulary is replaced, not merged.
	if profile.Policy.Classify("confirmed") != domaintasks.StatusActive {
		t.Fatalf("confirmed should be active under custom policy")
	}
	if len(profile.ExtractKeys) != 1 || profile.ExtractKeys[0] != "submission_ref" {
		t.Fatalf("extract keys = %v", profile.ExtractKeys)
	}
	// Containers fall back to defaults when unset.
	if len(profile.ContainerKeys) == 0 {
		t.Fatalf("container keys missing")
	}
}

func TestLoadProfileMissingFile(t *testing.T) {
	if _, err := LoadProfile(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatalf("LoadProfile() error = nil, want read error")
	}
}
