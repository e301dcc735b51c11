// Package textutil cleans untrusted text such as file names and link targets
// before it is drawn on the terminal.
package textutil

import "strings"

// formattingLabels names the bidi and zero-width runes. A link target using
// them can read differently from where it leads, so they are shown by name.
var formattingLabels = map[rune]string{
	0x00AD: "⟪SHY⟫",
	0x061C: "⟪ALM⟫",
	0x180E: "⟪MVS⟫",
	0x200B: "⟪ZWSP⟫",
	0x200C: "⟪ZWNJ⟫",
	0x200D: "⟪ZWJ⟫",
	0x200E: "⟪LRM⟫",
	0x200F: "⟪RLM⟫",
	0x2028: "⟪LSEP⟫",
	0x2029: "⟪PSEP⟫",
	0x202A: "⟪LRE⟫",
	0x202B: "⟪RLE⟫",
	0x202C: "⟪PDF⟫",
	0x202D: "⟪LRO⟫",
	0x202E: "⟪RLO⟫",
	0x2060: "⟪WJ⟫",
	0x2066: "⟪LRI⟫",
	0x2067: "⟪RLI⟫",
	0x2068: "⟪FSI⟫",
	0x2069: "⟪PDI⟫",
	0xFEFF: "⟪BOM⟫",
}

// SanitizeTerminalText makes text safe to draw on one terminal row. Line
// breaks and tabs become spaces and other C0 or C1 controls become '?'.
// Formatting runes are replaced by their labels.
func SanitizeTerminalText(text string) string {
	i := strings.IndexFunc(text, needsRewrite)
	if i < 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) + 8)
	b.WriteString(text[:i])
	for _, r := range text[i:] {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			b.WriteByte(' ')
		case isControl(r):
			b.WriteByte('?')
		default:
			if label, ok := formattingLabels[r]; ok {
				b.WriteString(label)
			} else {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

func needsRewrite(r rune) bool {
	return isControl(r) || isFormatting(r)
}

// isControl matches C0, DEL and C1. C1 matters because 0x9b is a one-rune CSI
// on terminals that honour 8-bit controls.
func isControl(r rune) bool {
	return r < 0x20 || (r >= 0x7f && r <= 0x9f)
}

func isFormatting(r rune) bool {
	_, ok := formattingLabels[r]
	return ok
}
