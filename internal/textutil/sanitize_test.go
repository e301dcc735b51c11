package textutil

import (
	"strings"
	"testing"
)

func TestSanitizeTerminalText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain file name", "paper.pdf", "paper.pdf"},
		{"plain uri", "https://example.com/a?b=c#d", "https://example.com/a?b=c#d"},
		{"escape sequence", "bad\x1b[31m\npath", "bad?[31m path"},
		{"tab", "a\tb", "a b"},
		{"c1 csi", "a\u009b2Jb", "a?2Jb"},
		{"delete", "a\x7fb", "a?b"},
		{"right to left override", "https://evil.example/\u202efdp.exe", "https://evil.example/⟪RLO⟫fdp.exe"},
		{"non ascii kept", "zażółć.pdf", "zażółć.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeTerminalText(tt.input); got != tt.want {
				t.Fatalf("SanitizeTerminalText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeTerminalTextLabelsEveryFormattingRune(t *testing.T) {
	for r, label := range formattingLabels {
		got := SanitizeTerminalText("x" + string(r) + "y")
		if got != "x"+label+"y" {
			t.Fatalf("rune %U: got %q, want label %q", r, got, label)
		}
		if strings.ContainsRune(got, r) {
			t.Fatalf("rune %U left in output %q", r, got)
		}
	}
}
