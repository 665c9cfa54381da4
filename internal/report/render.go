package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"

	"github.com/walletscan/walletscan/internal/types"
)

// PrintOptions controls the terminal summary.
type PrintOptions struct {
	NoColor bool
	// MaxRows limits the findings table; 0 prints every finding.
	MaxRows int
}

// Summary carries the figures shown after a scan.
type Summary struct {
	Root     string
	Findings []types.Finding
	Counters []Counter
	Duration time.Duration
}

// Counter is one labelled value of the summary table.
type Counter struct {
	Label string
	Value int
}

var (
	headingStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	sensitiveStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	warningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	okStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

func paint(s string, style lipgloss.Style, noColor bool) string {
	if noColor {
		return s
	}
	return style.Render(s)
}

// PrintSummary renders the findings table, the scan counters, the written
// artifacts and any output warnings.
func PrintSummary(w io.Writer, sum Summary, arts Artifacts, opts PrintOptions) error {
	if len(sum.Findings) == 0 {
		fmt.Fprintln(w, paint("No wallet artifacts found", okStyle, opts.NoColor))
	} else {
		fmt.Fprintln(w, paint(fmt.Sprintf("Findings: %d", len(sum.Findings)), headingStyle, opts.NoColor))
		if err := PrintFindings(w, sum.Findings, opts); err != nil {
			return err
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, paint("Scan summary", headingStyle, opts.NoColor))
	table := tablewriter.NewWriter(w)
	table.Header("Metric", "Value")
	if sum.Root != "" {
		if err := table.Append([]string{"Root", sum.Root}); err != nil {
			return err
		}
	}
	for _, c := range sum.Counters {
		if err := table.Append([]string{c.Label, strconv.Itoa(c.Value)}); err != nil {
			return err
		}
	}
	if sum.Duration > 0 {
		if err := table.Append([]string{"Duration", fmt.Sprintf("%.2fs", sum.Duration.Seconds())}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	for _, p := range arts.Paths() {
		fmt.Fprintf(w, "Wrote %s\n", p)
	}
	for _, warn := range arts.Warnings {
		fmt.Fprintln(w, paint("warning: "+warn, warningStyle, opts.NoColor))
	}
	return nil
}

// PrintFindings renders one row per finding. Snippets are already masked.
func PrintFindings(w io.Writer, findings []types.Finding, opts PrintOptions) error {
	table := tablewriter.NewWriter(w)
	table.Header("Path", "Filename rule", "Content rule", "Sensitive", "Snippet")
	for i, f := range findings {
		if opts.MaxRows > 0 && i >= opts.MaxRows {
			break
		}
		sensitive := "no"
		if f.IsSensitive {
			sensitive = paint("YES", sensitiveStyle, opts.NoColor)
		}
		if err := table.Append([]string{f.RelativePath, f.FilenameRuleID, f.ContentRuleID, sensitive, f.Snippet}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	if opts.MaxRows > 0 && len(findings) > opts.MaxRows {
		fmt.Fprintf(w, "... %d more in the artifacts\n", len(findings)-opts.MaxRows)
	}
	return nil
}
