package walletscan

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/walletscan/walletscan/internal/audit"
	"github.com/walletscan/walletscan/internal/config"
	"github.com/walletscan/walletscan/internal/engine"
	"github.com/walletscan/walletscan/internal/report"
)

var (
	flagRoot            string
	flagOutDir          string
	flagInclude         string
	flagExclude         string
	flagDefaultExcludes bool
	flagFullReadLimit   int64
	flagPrefixReadBytes int64
	flagParquet         bool
	flagMaxRows         int
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a directory tree for wallet artifacts",
		RunE:  runScan,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagRoot, "root", "r", "", "directory to scan (required)")
	cmd.Flags().StringVarP(&flagOutDir, "outdir", "o", "", "directory for reports and the audit log (default: reports)")
	cmd.Flags().StringVar(&flagInclude, "include", "", "comma-separated globs to include (e.g. **/*.json,**/*.dat)")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "comma-separated globs to exclude")
	cmd.Flags().BoolVar(&flagDefaultExcludes, "default-excludes", false, "skip top-level proc, sys, dev and run directories")
	cmd.Flags().Int64Var(&flagFullReadLimit, "full-read-limit", 0, "files at or below this size are read whole")
	cmd.Flags().Int64Var(&flagPrefixReadBytes, "prefix-read-bytes", 0, "bytes read from the start of larger files")
	cmd.Flags().BoolVar(&flagParquet, "parquet", false, "also write a Parquet artifact")
	cmd.Flags().IntVar(&flagMaxRows, "max-rows", 50, "findings shown in the terminal table (0 = all)")
	_ = cmd.MarkFlagRequired("root")
}

func runScan(cmd *cobra.Command, _ []string) error {
	settings, err := resolveSettings()
	if err != nil {
		return err
	}
	log, err := buildLogger(settings, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	root, err := engine.ValidateRoot(flagRoot)
	if err != nil {
		return err
	}
	if err := report.EnsureOutputDir(settings.OutDir); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	cfg := engine.Config{
		Root:            root,
		IncludeGlobs:    settings.Include,
		ExcludeGlobs:    settings.Exclude,
		DefaultExcludes: settings.DefaultExcludes,
		Threads:         settings.Threads,
		FullReadLimit:   settings.FullReadLimit,
		PrefixReadBytes: settings.PrefixReadBytes,
		Logger:          log,
	}
	if isTerminal(cmd.ErrOrStderr()) {
		cfg.Progress = progressPrinter(cmd)
	}

	stamp := report.Timestamp(time.Now())
	res, err := engine.ScanWithStats(ctx, cfg)
	if cfg.Progress != nil {
		fmt.Fprint(cmd.ErrOrStderr(), "\r\033[K")
	}
	if err != nil {
		return err
	}

	arts, werr := report.WriteArtifacts(settings.OutDir, stamp, res.Findings, report.ArtifactOptions{
		Parquet: settings.Parquet,
		Logger:  log,
	})

	rec := audit.CreateScanRecord(stamp, version, scanSettings(settings), res, arts.Paths(), arts.Warnings)
	al := audit.NewAuditLog(settings.OutDir)
	if err := al.LogScan(rec); err != nil {
		log.Warn().Err(err).Str("path", al.Path()).Msg("audit log not written")
		arts.Warnings = append(arts.Warnings, fmt.Sprintf("audit log %s: %v", al.Path(), err))
		if werr == nil {
			werr = report.ErrPartialOutput
		}
	}

	sum := report.Summary{
		Root:     res.Root,
		Findings: res.Findings,
		Counters: statsCounters(res.Stats),
		Duration: res.Duration,
	}
	if err := report.PrintSummary(cmd.OutOrStdout(), sum, arts, report.PrintOptions{
		NoColor: settings.NoColor || !isTerminal(cmd.OutOrStdout()),
		MaxRows: flagMaxRows,
	}); err != nil {
		return err
	}
	return werr
}

func scanSettings(s config.Settings) audit.ScanSettings {
	return audit.ScanSettings{
		Threads:         s.Threads,
		FullReadLimit:   s.FullReadLimit,
		PrefixReadBytes: s.PrefixReadBytes,
		IncludeGlobs:    s.Include,
		ExcludeGlobs:    s.Exclude,
		DefaultExcludes: s.DefaultExcludes,
	}
}

func statsCounters(s engine.Stats) []report.Counter {
	return []report.Counter{
		{Label: "Files visited", Value: s.FilesVisited},
		{Label: "Directories visited", Value: s.DirsVisited},
		{Label: "Findings", Value: s.Findings},
		{Label: "Sensitive findings", Value: s.Sensitive},
		{Label: "Read errors", Value: s.ReadErrors},
		{Label: "Hash errors", Value: s.HashErrors},
		{Label: "Walk errors", Value: s.WalkErrors},
		{Label: "Symlinks skipped", Value: s.SymlinksSkipped},
		{Label: "Special files", Value: s.SpecialFiles},
		{Label: "Truncated reads", Value: s.TruncatedReads},
		{Label: "Excluded by globs", Value: s.ExcludedByGlobs},
		{Label: "Excluded directories", Value: s.ExcludedDirs},
	}
}

// progressPrinter rewrites one status line every 500 files.
func progressPrinter(cmd *cobra.Command) func() {
	n := 0
	return func() {
		n++
		if n%500 == 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "\rScanning... %d files", n)
		}
	}
}
