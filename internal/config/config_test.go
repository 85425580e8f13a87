package config

import "testing"

func TestNormalizeRole(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"user", "user"},
		{"telecaller", "telecaller"},
		{"receiver", "telecaller"},
		{"Telecaller", "telecaller"},
		{"  telecaller  ", "telecaller"},
		{"", "user"},
		{"admin", "user"},
	}

	for _, tt := range tests {
		if got := normalizeRole(tt.in); got != tt.want {
			t.Errorf("normalizeRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsTelecaller(t *testing.T) {
	cfg := &Config{Role: "telecaller"}
	if !cfg.IsTelecaller() {
		t.Error("IsTelecaller() = false for telecaller role")
	}

	cfg = &Config{Role: "user"}
	if cfg.IsTelecaller() {
		t.Error("IsTelecaller() = true for user role")
	}
}
