package walletscan

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/walletscan/walletscan/internal/ingest"
)

var (
	flagIngestDB     string
	flagIngestInput  string
	flagIngestOutput string
	flagIngestCase   string
)

func init() {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load findings from a JSON or JSON Lines stream into a case database",
		Long: "ingest accepts walletscan artifacts and finding streams from other scanners, " +
			"re-applies redaction, and stores each finding once in a SQLite database.",
		RunE: runIngest,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVar(&flagIngestDB, "db", "", "SQLite database path (default: <outdir>/findings.db)")
	cmd.Flags().StringVarP(&flagIngestInput, "input", "i", "", "input file (default: stdin)")
	cmd.Flags().StringVar(&flagIngestOutput, "out", "", "write the normalised records as JSON Lines to this file")
	cmd.Flags().StringVar(&flagIngestCase, "case", "", "case identifier for records that carry none")
}

func runIngest(cmd *cobra.Command, _ []string) error {
	settings, err := resolveSettings()
	if err != nil {
		return err
	}
	log, err := buildLogger(settings, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	dbPath := flagIngestDB
	if dbPath == "" {
		dbPath = filepath.Join(settings.OutDir, "findings.db")
	}

	var in io.Reader = cmd.InOrStdin()
	if flagIngestInput != "" && flagIngestInput != "-" {
		f, err := os.Open(flagIngestInput)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	store, err := ingest.OpenStore(dbPath, log)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := ingest.Options{CaseID: flagIngestCase, Logger: log}
	if flagIngestOutput != "" {
		out, err := os.OpenFile(flagIngestOutput, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return err
		}
		defer out.Close()
		opts.Output = out
	}

	sum, err := ingest.Ingest(cmd.Context(), in, store, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "read %d, stored %d, duplicates %d, malformed %d (%s)\n",
		sum.Read, sum.Stored, sum.Duplicates, sum.Malformed, dbPath)
	return nil
}
