package types

// RedactionMarker replaces the snippet of every sensitive finding. Nothing
// derived from the matched text is stored alongside it.
const RedactionMarker = "REDACTED: sensitive content (masked)"

// Finding describes one file that matched a filename or content rule. It is
// created once when the file finishes evaluation and never modified.
type Finding struct {
	RelativePath   string `json:"relative_path"`
	FileName       string `json:"file_name"`
	FileSizeBytes  uint64 `json:"file_size_bytes"`
	FilenameRuleID string `json:"filename_rule_id"`
	ContentRuleID  string `json:"content_rule_id"`
	IsSensitive    bool   `json:"is_sensitive"`
	Snippet        string `json:"snippet"` // masked excerpt or RedactionMarker, never raw
	ContentDigest  string `json:"content_digest"`
}

// Matched reports whether at least one rule fired. Only matched findings
// are emitted.
func (f Finding) Matched() bool {
	return f.FilenameRuleID != "" || f.ContentRuleID != ""
}
