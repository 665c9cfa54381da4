package walletscan

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/walletscan/walletscan/internal/audit"
)

var (
	flagHistoryLimit int
	flagHistoryJSON  bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previous scans recorded in the audit log",
		RunE:  runHistory,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagOutDir, "outdir", "o", "", "report directory holding "+audit.FileName)
	cmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "most recent scans to show (0 = all)")
	cmd.Flags().BoolVar(&flagHistoryJSON, "json", false, "print the raw records as JSON")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	settings, err := resolveSettings()
	if err != nil {
		return err
	}
	al := audit.NewAuditLog(settings.OutDir)
	records, err := al.LoadHistory()
	if errors.Is(err, fs.ErrNotExist) {
		records, err = nil, nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", al.Path(), err)
	}
	if flagHistoryLimit > 0 && len(records) > flagHistoryLimit {
		records = records[:flagHistoryLimit]
	}

	out := cmd.OutOrStdout()
	if flagHistoryJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No scans recorded in", al.Path())
		return nil
	}

	table := tablewriter.NewWriter(out)
	table.Header("Scan", "Root", "Files", "Findings", "Sensitive", "Warnings", "Duration")
	for _, r := range records {
		row := []string{
			r.ScanID,
			r.Root,
			strconv.Itoa(r.Stats.FilesVisited),
			strconv.Itoa(r.TotalFindings),
			strconv.Itoa(r.SensitiveFindings),
			strconv.Itoa(len(r.Warnings)),
			r.Duration,
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}
