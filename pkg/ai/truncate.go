package ai

import (
	"strings"

	"github.com/rivo/uniseg"
)

const (
	// MaxNarrationChars bounds the narrated text in user-perceived characters.
	MaxNarrationChars = 1000
	// ClosingPhrase is appended to narration text that was clipped.
	ClosingPhrase = "... And so your dream continues, filled with wonder and magic."
)

// TruncateForNarration clips text to MaxNarrationChars grapheme clusters and
// appends ClosingPhrase when anything was cut.
func TruncateForNarration(text string) string {
	if uniseg.GraphemeClusterCount(text) <= MaxNarrationChars {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	g := uniseg.NewGraphemes(text)
	for n := 0; n < MaxNarrationChars && g.Next(); n++ {
		b.WriteString(g.Str())
	}
	b.WriteString(ClosingPhrase)
	return b.String()
}
