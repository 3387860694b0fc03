package tui

import "testing"

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", "(none)"},
		{"short", "***"},
		{"12345678", "***"},
		{"sk-abcdefghijklmnop", "sk-a...mnop"},
	}

	for _, tt := range tests {
		if got := maskAPIKey(tt.key); got != tt.want {
			t.Errorf("maskAPIKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestLanguageLabel(t *testing.T) {
	if got := languageLabel(""); got != "Auto-detect" {
		t.Errorf("languageLabel(\"\") = %q, want Auto-detect", got)
	}
	if got := languageLabel("it"); got != "Italian" {
		t.Errorf("languageLabel(it) = %q, want Italian", got)
	}
	// unknown codes fall through as-is
	if got := languageLabel("xx"); got != "xx" {
		t.Errorf("languageLabel(xx) = %q, want xx", got)
	}
}

func TestProviderDisplayName(t *testing.T) {
	if got := providerDisplayName("openai"); got != "OpenAI" {
		t.Errorf("providerDisplayName(openai) = %q", got)
	}
	if got := providerDisplayName("realtime"); got != "Streaming provider" {
		t.Errorf("providerDisplayName(realtime) = %q", got)
	}
}
