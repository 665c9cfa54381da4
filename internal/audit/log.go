// Package audit keeps an append-only JSON Lines record of every scan written
// to an output directory. Records carry counts and rule IDs, never snippets.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/walletscan/walletscan/internal/engine"
	"github.com/walletscan/walletscan/internal/types"
)

// FileName is the audit log name inside the output directory.
const FileName = "scan_audit.jsonl"

const topFindingsLimit = 10

type ScanRecord struct {
	Timestamp         time.Time        `json:"timestamp"`
	ScanID            string           `json:"scan_id"`
	Root              string           `json:"root"`
	ToolVersion       string           `json:"tool_version"`
	Settings          ScanSettings     `json:"settings"`
	Stats             engine.Stats     `json:"stats"`
	TotalFindings     int              `json:"total_findings"`
	SensitiveFindings int              `json:"sensitive_findings"`
	RuleCounts        map[string]int   `json:"rule_counts"`
	Duration          string           `json:"duration"`
	Artifacts         []string         `json:"artifacts"`
	Warnings          []string         `json:"warnings,omitempty"`
	TopFindings       []FindingSummary `json:"top_findings,omitempty"`
}

// ScanSettings records the knobs that shaped a scan.
type ScanSettings struct {
	Threads         int    `json:"threads"`
	FullReadLimit   int64  `json:"full_read_limit"`
	PrefixReadBytes int64  `json:"prefix_read_bytes"`
	IncludeGlobs    string `json:"include_globs,omitempty"`
	ExcludeGlobs    string `json:"exclude_globs,omitempty"`
	DefaultExcludes bool   `json:"default_excludes,omitempty"`
}

type FindingSummary struct {
	Path           string `json:"path"`
	FilenameRuleID string `json:"filename_rule_id,omitempty"`
	ContentRuleID  string `json:"content_rule_id,omitempty"`
	Sensitive      bool   `json:"sensitive"`
}

type AuditLog struct {
	logPath string
}

func NewAuditLog(outDir string) *AuditLog {
	return &AuditLog{logPath: filepath.Join(outDir, FileName)}
}

// Path returns the location of the log file.
func (a *AuditLog) Path() string { return a.logPath }

// LoadHistory returns records newest first. Lines that do not decode are
// skipped.
func (a *AuditLog) LoadHistory() ([]ScanRecord, error) {
	f, err := os.Open(a.logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var records []ScanRecord
	decoder := json.NewDecoder(f)
	for decoder.More() {
		var record ScanRecord
		if err := decoder.Decode(&record); err != nil {
			// a syntax error leaves the decoder unusable
			if _, ok := err.(*json.SyntaxError); ok {
				break
			}
			continue
		}
		records = append(records, record)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func (a *AuditLog) LogScan(record ScanRecord) error {
	if record.ScanID == "" {
		record.ScanID = record.Timestamp.UTC().Format("20060102T150405Z")
	}

	// owner-only: the log names evidence paths
	f, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	if err := encoder.Encode(record); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// CreateScanRecord summarises a finished scan. Snippets are not copied.
func CreateScanRecord(stamp, version string, settings ScanSettings, res engine.Result, artifacts, warnings []string) ScanRecord {
	ruleCounts := make(map[string]int)
	sensitive := 0
	for _, f := range res.Findings {
		if f.FilenameRuleID != "" {
			ruleCounts["filename:"+f.FilenameRuleID]++
		}
		if f.ContentRuleID != "" {
			ruleCounts["content:"+f.ContentRuleID]++
		}
		if f.IsSensitive {
			sensitive++
		}
	}

	return ScanRecord{
		Timestamp:         time.Now().UTC(),
		ScanID:            stamp,
		Root:              res.Root,
		ToolVersion:       version,
		Settings:          settings,
		Stats:             res.Stats,
		TotalFindings:     len(res.Findings),
		SensitiveFindings: sensitive,
		RuleCounts:        ruleCounts,
		Duration:          res.Duration.String(),
		Artifacts:         artifacts,
		Warnings:          warnings,
		TopFindings:       topFindings(res.Findings),
	}
}

// topFindings picks sensitive findings first, then by path.
func topFindings(fs []types.Finding) []FindingSummary {
	sorted := append([]types.Finding(nil), fs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].IsSensitive != sorted[j].IsSensitive {
			return sorted[i].IsSensitive
		}
		return sorted[i].RelativePath < sorted[j].RelativePath
	})
	out := make([]FindingSummary, 0, topFindingsLimit)
	for i, f := range sorted {
		if i >= topFindingsLimit {
			break
		}
		out = append(out, FindingSummary{
			Path:           f.RelativePath,
			FilenameRuleID: f.FilenameRuleID,
			ContentRuleID:  f.ContentRuleID,
			Sensitive:      f.IsSensitive,
		})
	}
	return out
}
