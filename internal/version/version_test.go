package version_test

import (
	"testing"

	"github.com/edumarques81/stellar-signage/internal/version"
)

func TestGetInfo(t *testing.T) {
	info := version.GetInfo()

	if info.Name != "Stellar Signage" {
		t.Errorf("expected name 'Stellar Signage', got %q", info.Name)
	}
	if info.Version == "" {
		t.Error("Version should not be empty")
	}
}

func TestInfoString(t *testing.T) {
	tests := []struct {
		name     string
		info     version.Info
		expected string
	}{
		{"plain", version.Info{Name: "Stellar Signage", Version: "1.2.3"}, "Stellar Signage v1.2.3"},
		{"short commit", version.Info{Name: "S", Version: "1", GitCommit: "abc"}, "S v1 (abc)"},
		{"long commit", version.Info{Name: "S", Version: "1", GitCommit: "0123456789abcdef"}, "S v1 (0123456)"},
		{"build time", version.Info{Name: "S", Version: "1", BuildTime: "2026-01-01"}, "S v1 built 2026-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.String(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
