// Package report writes scan results as JSON, CSV and optional Parquet
// artifacts and renders the terminal summary.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/walletscan/walletscan/internal/types"
)

// TimestampLayout is the UTC token embedded in artifact names.
const TimestampLayout = "20060102T150405Z"

const artifactPrefix = "scan_results_"

var (
	// ErrPartialOutput means at least one artifact was written and at least
	// one failed.
	ErrPartialOutput = errors.New("some output artifacts could not be written")
	// ErrNoOutput means every artifact failed.
	ErrNoOutput = errors.New("no output artifacts could be written")
)

// Timestamp formats t in UTC as YYYYMMDDTHHMMSSZ.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// EnsureOutputDir creates dir and its parents if needed.
func EnsureOutputDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("create output dir: empty path")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", dir, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat output dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output path %s is not a directory", dir)
	}
	return nil
}

// ArtifactOptions selects optional artifacts.
type ArtifactOptions struct {
	Parquet bool
	Logger  zerolog.Logger
}

// Artifacts lists the files that were written and the failures of those that
// were not.
type Artifacts struct {
	JSON     string   `json:"json,omitempty"`
	CSV      string   `json:"csv,omitempty"`
	Parquet  string   `json:"parquet,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Paths returns the written artifact paths in a stable order.
func (a Artifacts) Paths() []string {
	var out []string
	for _, p := range []string{a.JSON, a.CSV, a.Parquet} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ArtifactPath returns <dir>/scan_results_<stamp>.<ext>.
func ArtifactPath(dir, stamp, ext string) string {
	return filepath.Join(dir, artifactPrefix+stamp+"."+ext)
}

// WriteArtifacts writes every artifact for findings into dir. A failing
// artifact does not stop the others.
func WriteArtifacts(dir, stamp string, findings []types.Finding, opts ArtifactOptions) (Artifacts, error) {
	log := opts.Logger.With().Str("module", "report").Logger()
	var arts Artifacts
	attempted := 0

	write := func(ext string, enc func(io.Writer, []types.Finding) error) string {
		attempted++
		p := ArtifactPath(dir, stamp, ext)
		if err := writeFile(p, func(w io.Writer) error { return enc(w, findings) }); err != nil {
			arts.Warnings = append(arts.Warnings, err.Error())
			log.Warn().Err(err).Str("path", p).Msg("artifact not written")
			return ""
		}
		log.Info().Str("path", p).Int("findings", len(findings)).Msg("artifact written")
		return p
	}

	arts.JSON = write("json", WriteJSON)
	arts.CSV = write("csv", WriteCSV)
	if opts.Parquet {
		arts.Parquet = write("parquet", WriteParquet)
	}

	written := len(arts.Paths())
	switch {
	case written == attempted:
		return arts, nil
	case written == 0:
		return arts, ErrNoOutput
	default:
		return arts, ErrPartialOutput
	}
}

// writeFile creates path and fills it through enc. A partially written file
// is removed.
func writeFile(path string, enc func(io.Writer) error) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := enc(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
