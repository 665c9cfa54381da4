package walletscan

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/walletscan/walletscan/internal/config"
)

var (
	cfgOutput  string
	cfgForce   bool
	cfgThreads int
	cfgOutDir  string
	cfgParquet bool
)

func init() {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	rootCmd.AddCommand(cfgCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a .walletscan.yml with every option at its default",
		RunE:  runConfigInit,
	}
	cfgCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&cfgOutput, "output", config.LocalFileNames[0], "output file path")
	initCmd.Flags().BoolVar(&cfgForce, "force", false, "overwrite an existing file")
	initCmd.Flags().IntVar(&cfgThreads, "threads", 0, "worker threads written to the file")
	initCmd.Flags().StringVar(&cfgOutDir, "outdir", "", "report directory written to the file")
	initCmd.Flags().BoolVar(&cfgParquet, "parquet", false, "enable the Parquet artifact in the file")

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings after merging flags and config files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := resolveSettings()
			if err != nil {
				return err
			}
			b, err := config.Marshal(settingsFile(s))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	})
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	if _, err := os.Stat(cfgOutput); err == nil && !cfgForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgOutput)
	}
	fc := config.Template()
	if cfgThreads != 0 {
		fc.Threads = &cfgThreads
	}
	if cfgOutDir != "" {
		fc.OutDir = &cfgOutDir
	}
	if cfgParquet {
		fc.Parquet = &cfgParquet
	}

	b, err := config.Marshal(fc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfgOutput, b, 0o644); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Wrote", cfgOutput)
	return nil
}

// settingsFile renders resolved settings in the on-disk shape.
func settingsFile(s config.Settings) config.FileConfig {
	return config.FileConfig{
		Include:         &s.Include,
		Exclude:         &s.Exclude,
		DefaultExcludes: &s.DefaultExcludes,
		Threads:         &s.Threads,
		FullReadLimit:   &s.FullReadLimit,
		PrefixReadBytes: &s.PrefixReadBytes,
		OutDir:          &s.OutDir,
		Parquet:         &s.Parquet,
		NoColor:         &s.NoColor,
		Log: &config.LogConfig{
			Level:      &s.LogLevel,
			Format:     &s.LogFormat,
			File:       &s.LogFile,
			MaxSizeMB:  &s.LogMaxSizeMB,
			MaxBackups: &s.LogMaxBackups,
		},
	}
}
