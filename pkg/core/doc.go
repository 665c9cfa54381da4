// Package core provides a small, stable facade over walletscan's internal
// engine for programs that embed the scanner. It re-exports a narrow API
// surface so callers do not import internal packages.
//
// Example:
//
//	res, err := core.ScanWithStats(ctx, core.Config{Root: "/mnt/evidence", Threads: 4})
//	if err != nil { /* handle */ }
//	_ = core.MarshalFindings(os.Stdout, res.Findings)
package core
