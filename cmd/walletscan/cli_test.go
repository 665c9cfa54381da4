package walletscan

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletscan/walletscan/internal/audit"
	"github.com/walletscan/walletscan/internal/report"
	"github.com/walletscan/walletscan/internal/rules"
)

const hex64 = "1234567890abcdef1234567890abcdef1234567890abcdef1234567890abcdef"

// resetFlags restores every flag to its default so in-process runs do not
// leak values into each other.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCLI executes the CLI in-process from an isolated working directory.
func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(""))
	code = run(args)
	return code, out.String(), errOut.String()
}

func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	wd := t.TempDir()
	t.Chdir(wd)
	return wd
}

func evidenceTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "wallet.dat"), []byte("key "+hex64), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("nothing here"), 0o644))
	return root
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 1, exitCode(report.ErrPartialOutput))
	assert.Equal(t, 1, exitCode(fmt.Errorf("write: %w", report.ErrPartialOutput)))
	assert.Equal(t, 2, exitCode(report.ErrNoOutput))
	assert.Equal(t, 2, exitCode(errors.New("boom")))
}

func TestScan_WritesArtifactsAndAudit(t *testing.T) {
	isolate(t)
	root := evidenceTree(t)
	outDir := filepath.Join(t.TempDir(), "reports")

	code, stdout, stderr := runCLI(t, "scan", "--root", root, "--outdir", outDir, "--parquet", "--log-level", "error")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Findings: 1")
	assert.Contains(t, stdout, "wallet.dat")
	assert.NotContains(t, stdout, hex64)

	for _, ext := range []string{"json", "csv", "parquet"} {
		matches, err := filepath.Glob(filepath.Join(outDir, "scan_results_*."+ext))
		require.NoError(t, err)
		assert.Len(t, matches, 1, ext)
	}

	records, err := audit.NewAuditLog(outDir).LoadHistory()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].TotalFindings)
	assert.Equal(t, 1, records[0].SensitiveFindings)
}

func TestScan_NoFindings(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	code, stdout, _ := runCLI(t, "scan", "--root", root, "--outdir", t.TempDir(), "--log-level", "error")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "No wallet artifacts found")
}

func TestScan_FatalErrors(t *testing.T) {
	isolate(t)

	code, _, stderr := runCLI(t, "scan", "--root", filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "error:")

	code, _, _ = runCLI(t, "scan")
	assert.Equal(t, 2, code, "--root is required")

	code, _, stderr = runCLI(t, "scan", "--root", t.TempDir(), "--threads", "1000")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "invalid configuration")
}

func TestScan_LocalConfigIsApplied(t *testing.T) {
	wd := isolate(t)
	root := evidenceTree(t)
	yml := "outdir: from-config\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(filepath.Join(wd, ".walletscan.yml"), []byte(yml), 0o644))

	code, _, stderr := runCLI(t, "scan", "--root", root)
	require.Equal(t, 0, code, stderr)
	matches, _ := filepath.Glob(filepath.Join(wd, "from-config", "scan_results_*.json"))
	assert.Len(t, matches, 1)
}

func TestRules_ListsBothTables(t *testing.T) {
	isolate(t)
	code, stdout, _ := runCLI(t, "rules")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "wallet")
	assert.Contains(t, stdout, rules.HexKeyPattern)
	assert.Contains(t, stdout, "YES")
}

func TestConfigInit(t *testing.T) {
	wd := isolate(t)

	code, stdout, _ := runCLI(t, "config", "init", "--outdir", "evidence-out")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Wrote .walletscan.yml")
	b, err := os.ReadFile(filepath.Join(wd, ".walletscan.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "outdir: evidence-out")

	code, _, stderr := runCLI(t, "config", "init")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "already exists")

	code, _, _ = runCLI(t, "config", "init", "--force")
	assert.Equal(t, 0, code)

	code, stdout, _ = runCLI(t, "config", "show", "--log-level", "debug")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "level: debug")
	assert.Contains(t, stdout, "outdir: reports")
}

func TestIngest_ScanArtifact(t *testing.T) {
	isolate(t)
	root := evidenceTree(t)
	outDir := t.TempDir()

	code, _, stderr := runCLI(t, "scan", "--root", root, "--outdir", outDir, "--log-level", "error")
	require.Equal(t, 0, code, stderr)
	matches, _ := filepath.Glob(filepath.Join(outDir, "scan_results_*.json"))
	require.Len(t, matches, 1)

	db := filepath.Join(t.TempDir(), "case.db")
	jsonl := filepath.Join(t.TempDir(), "out.jsonl")
	code, stdout, stderr := runCLI(t, "ingest", "--input", matches[0], "--db", db, "--out", jsonl, "--case", "C-1", "--log-level", "error")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "stored 1")

	code, stdout, _ = runCLI(t, "ingest", "--input", matches[0], "--db", db, "--log-level", "error")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "duplicates 1")

	b, err := os.ReadFile(jsonl)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"C-1"`)
	assert.NotContains(t, string(b), hex64)
}

func TestHistory(t *testing.T) {
	isolate(t)
	outDir := t.TempDir()

	code, stdout, _ := runCLI(t, "history", "--outdir", outDir)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "No scans recorded")

	code, _, stderr := runCLI(t, "scan", "--root", evidenceTree(t), "--outdir", outDir, "--log-level", "error")
	require.Equal(t, 0, code, stderr)

	code, stdout, _ = runCLI(t, "history", "--outdir", outDir)
	require.Equal(t, 0, code)
	records, err := audit.NewAuditLog(outDir).LoadHistory()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Contains(t, stdout, records[0].ScanID)
}
