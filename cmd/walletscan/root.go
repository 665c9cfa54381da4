package walletscan

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/walletscan/walletscan/internal/report"
)

var (
	flagConfig    string
	flagLogLevel  string
	flagLogFormat string
	flagLogFile   string
	flagNoColor   bool
	flagThreads   int

	version = "0.1.0"
)

// Exit codes.
const (
	exitOK      = 0
	exitPartial = 1
	exitFatal   = 2
)

// rootCmd is the base Cobra command for the walletscan CLI.
var rootCmd = &cobra.Command{
	Use:   "walletscan",
	Short: "Find cryptocurrency wallet artifacts in a filesystem tree",
	Long: "walletscan walks a mounted evidence tree, flags files that look like wallet " +
		"keystores, raw private keys or seed phrases, and writes redacted JSON and CSV reports.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the walletscan CLI. It should be called by the main package.
func Execute() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "error:", err)
	}
	return exitCode(err)
}

// exitCode maps a command error to the process exit status. Partial output
// is the only non-fatal failure.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, report.ErrPartialOutput):
		return exitPartial
	default:
		return exitFatal
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: ./.walletscan.yml, then $XDG_CONFIG_HOME/walletscan/config.yml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: console|text|json")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "also write logs to this file (rotated)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().IntVar(&flagThreads, "threads", 0, "worker count (0 or 1 = sequential)")
}
