// Package classify decides whether a content match is secret material and
// turns it into the snippet that may be stored.
package classify

import (
	"github.com/walletscan/walletscan/internal/redact"
	"github.com/walletscan/walletscan/internal/rules"
	"github.com/walletscan/walletscan/internal/types"
)

// IsSensitive reports whether a rule's match body is plausibly the secret
// itself rather than a structural marker.
func IsSensitive(r rules.Rule) bool {
	return r.Class == rules.ClassContent && r.Sensitive
}

// IsSensitiveID is IsSensitive for a recorded content rule ID, current or
// legacy. Unknown IDs are not sensitive.
func IsSensitiveID(id string) bool {
	r, ok := rules.LookupContentRule(id)
	return ok && IsSensitive(r)
}

// Snippet builds the stored snippet for a content match in text. Sensitive
// matches yield the redaction marker and the context window is dropped.
func Snippet(text string, m rules.Match) (string, bool) {
	if IsSensitive(m.Rule) {
		return types.RedactionMarker, true
	}
	raw := redact.Window(text, m.Start, m.End, redact.ContextRadius)
	return redact.MaskText(raw), false
}

// Remask re-applies the snippet policy to an already recorded finding. It is
// used on streams produced elsewhere, whose snippets cannot be trusted.
func Remask(f types.Finding) types.Finding {
	if f.IsSensitive || IsSensitiveID(f.ContentRuleID) {
		f.IsSensitive = true
		f.Snippet = types.RedactionMarker
		return f
	}
	f.Snippet = redact.MaskText(f.Snippet)
	return f
}
