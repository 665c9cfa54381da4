package core

import (
	"context"

	"github.com/walletscan/walletscan/internal/classify"
	"github.com/walletscan/walletscan/internal/engine"
	"github.com/walletscan/walletscan/internal/rules"
	"github.com/walletscan/walletscan/internal/types"
)

// Re-exported as aliases so external consumers depend on a stable path.
type (
	Config  = engine.Config
	Result  = engine.Result
	Stats   = engine.Stats
	Finding = types.Finding
	Rule    = rules.Rule
)

// RedactionMarker is the snippet stored for sensitive findings.
const RedactionMarker = types.RedactionMarker

// Scan walks cfg.Root and returns findings sorted by relative path.
func Scan(ctx context.Context, cfg Config) ([]Finding, error) {
	return engine.Scan(ctx, cfg)
}

// ScanWithStats is Scan plus counters and timing.
func ScanWithStats(ctx context.Context, cfg Config) (Result, error) {
	return engine.ScanWithStats(ctx, cfg)
}

// ValidateRoot resolves and checks a scan root before scanning.
func ValidateRoot(root string) (string, error) { return engine.ValidateRoot(root) }

// Rules returns the filename rules followed by the content rules, each in
// evaluation order.
func Rules() []Rule {
	return append(rules.FilenameRules(), rules.ContentRules()...)
}

// Redact re-applies snippet masking to a finding produced elsewhere.
func Redact(f Finding) Finding { return classify.Remask(f) }
