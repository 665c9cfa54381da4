// Package redact masks text fragments so they can be stored as evidence
// without reproducing secret material. Every function is pure.
package redact

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/walletscan/walletscan/internal/rules"
)

const (
	// ContextRadius is how many characters of context are kept on each side
	// of a match.
	ContextRadius = 40
	// MaxSnippetLen is the longest snippet stored before truncation.
	MaxSnippetLen = 120
	// capKeep is how many characters survive at each end of a capped snippet.
	capKeep = 56
	// capSeparator joins the two ends of a capped snippet.
	capSeparator = " ... "

	hexKeepHead  = 6
	hexKeepTail  = 4
	hexShortRun  = 14
	phraseMarker = "***"
)

var (
	hexRunRe    = regexp.MustCompile(`[A-Fa-f0-9]{20,}`)
	phraseRunRe = regexp.MustCompile(`(?i)` + rules.PhrasePattern)
)

// Window returns text[start:end] widened by up to radius characters on each
// side, clipped to the bounds of text. Offsets are byte offsets; the widening
// counts runes so multi-byte characters are never split.
func Window(text string, start, end, radius int) string {
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	if start > end {
		start = end
	}
	lo := start
	for i := 0; i < radius && lo > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:lo])
		lo -= size
	}
	hi := end
	for i := 0; i < radius && hi < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[hi:])
		hi += size
	}
	return text[lo:hi]
}

// MaskHex hides every run of 20 or more hex characters, keeping the first 6
// and last 4.
func MaskHex(s string) string {
	return hexRunRe.ReplaceAllStringFunc(s, maskHexRun)
}

// maskHexRun masks one hex run. Short runs reveal nothing, not even their
// edges.
func maskHexRun(run string) string {
	n := len(run)
	if n <= hexShortRun {
		return strings.Repeat("*", n)
	}
	return run[:hexKeepHead] + strings.Repeat("*", n-hexKeepHead-hexKeepTail) + run[n-hexKeepTail:]
}

// MaskPhrase collapses every 12-25 word run to its first and last word.
func MaskPhrase(s string) string {
	return phraseRunRe.ReplaceAllStringFunc(s, maskPhraseRun)
}

func maskPhraseRun(run string) string {
	words := strings.Fields(run)
	if len(words) <= 2 {
		return phraseMarker
	}
	return words[0] + " " + phraseMarker + " " + words[len(words)-1]
}

// Cap truncates strings longer than MaxSnippetLen characters to their first
// and last 56 characters.
func Cap(s string) string {
	if utf8.RuneCountInString(s) <= MaxSnippetLen {
		return s
	}
	r := []rune(s)
	return string(r[:capKeep]) + capSeparator + string(r[len(r)-capKeep:])
}

// MaskText applies hex masking, phrase masking and the length cap in that
// order.
func MaskText(s string) string {
	return Cap(MaskPhrase(MaskHex(s)))
}
