package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/walletscan/walletscan/internal/classify"
	"github.com/walletscan/walletscan/internal/rules"
	"github.com/walletscan/walletscan/internal/types"
)

var (
	ErrNoPath       = errors.New("record has no path")
	ErrNoRule       = errors.New("record names no rule")
	ErrPatternLabel = errors.New("record pattern is neither filename: nor content:")
)

// Record is a normalised, re-masked finding together with the provenance
// fields some streams carry.
type Record struct {
	types.Finding
	CaseID         string `json:"case_id,omitempty"`
	ScannerVersion string `json:"scanner_version,omitempty"`
	ObservedAt     string `json:"observed_at,omitempty"`
}

// rawRecord accepts the union of every known record shape: this tool's
// findings, the earlier Python scanner rows and the JSONL hit stream.
type rawRecord struct {
	RelativePath   string      `json:"relative_path"`
	FileName       string      `json:"file_name"`
	FileSizeBytes  json.Number `json:"file_size_bytes"`
	FilenameRuleID string      `json:"filename_rule_id"`
	ContentRuleID  string      `json:"content_rule_id"`
	IsSensitive    bool        `json:"is_sensitive"`
	Snippet        string      `json:"snippet"`
	ContentDigest  string      `json:"content_digest"`
	CaseID         string      `json:"case_id"`
	ScannerVersion string      `json:"scanner_version"`
	ObservedAt     string      `json:"observed_at"`

	Path            string      `json:"path"`
	Filename        string      `json:"filename"`
	Filesize        json.Number `json:"filesize"`
	FilenamePattern string      `json:"filename_pattern"`
	ContentPattern  string      `json:"content_pattern"`
	Sensitive       bool        `json:"sensitive"`
	SHA256          string      `json:"sha256"`

	Case      string `json:"case"`
	Pattern   string `json:"pattern"`
	Timestamp string `json:"timestamp"`
}

// Normalize decodes one JSON object in any known shape and re-masks it.
func Normalize(data []byte) (Record, error) {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}

	p := strings.ReplaceAll(firstNonEmpty(raw.RelativePath, raw.Path), "\\", "/")
	if p == "" {
		return Record{}, ErrNoPath
	}
	f := types.Finding{
		RelativePath:   p,
		FileName:       firstNonEmpty(raw.FileName, raw.Filename, path.Base(p)),
		FileSizeBytes:  parseSize(firstNonEmpty(raw.FileSizeBytes.String(), raw.Filesize.String())),
		FilenameRuleID: firstNonEmpty(raw.FilenameRuleID, raw.FilenamePattern),
		ContentRuleID:  firstNonEmpty(raw.ContentRuleID, raw.ContentPattern),
		IsSensitive:    raw.IsSensitive || raw.Sensitive,
		Snippet:        raw.Snippet,
		ContentDigest:  strings.ToLower(firstNonEmpty(raw.ContentDigest, raw.SHA256)),
	}
	if raw.Pattern != "" {
		label, re, ok := strings.Cut(raw.Pattern, ":")
		switch {
		case ok && label == "filename":
			f.FilenameRuleID = re
		case ok && label == "content":
			f.ContentRuleID = re
		default:
			return Record{}, fmt.Errorf("%w: %q", ErrPatternLabel, raw.Pattern)
		}
	}
	f.FilenameRuleID = stripFlags(f.FilenameRuleID)
	f.ContentRuleID = stripFlags(f.ContentRuleID)
	if r, ok := rules.LookupContentRule(f.ContentRuleID); ok {
		f.ContentRuleID = r.ID
	}
	if !f.Matched() {
		return Record{}, ErrNoRule
	}

	return Record{
		Finding:        classify.Remask(f),
		CaseID:         firstNonEmpty(raw.CaseID, raw.Case),
		ScannerVersion: raw.ScannerVersion,
		ObservedAt:     firstNonEmpty(raw.ObservedAt, raw.Timestamp),
	}, nil
}

// stripFlags drops a leading inline flag group such as (?i); rule identity
// excludes flags.
func stripFlags(id string) string {
	if strings.HasPrefix(id, "(?") {
		if end := strings.Index(id, ")"); end > 0 && !strings.ContainsAny(id[2:end], ":(") {
			return id[end+1:]
		}
	}
	return id
}

func parseSize(s string) uint64 {
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return uint64(f)
	}
	return 0
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
