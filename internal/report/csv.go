package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/walletscan/walletscan/internal/types"
)

// CSVHeader is the fixed column order of the CSV artifact.
var CSVHeader = []string{"path", "filename", "filesize", "filename_pattern", "content_pattern", "sensitive", "snippet", "sha256"}

var ErrCSVHeader = errors.New("unexpected csv header")

// WriteCSV writes the header and one row per finding. The sensitive column
// is rendered True or False.
func WriteCSV(w io.Writer, findings []types.Finding) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, f := range findings {
		row := []string{
			f.RelativePath,
			f.FileName,
			strconv.FormatUint(f.FileSizeBytes, 10),
			f.FilenameRuleID,
			f.ContentRuleID,
			formatBool(f.IsSensitive),
			f.Snippet,
			f.ContentDigest,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", f.RelativePath, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ReadCSV parses a CSV artifact. The header must match CSVHeader exactly.
func ReadCSV(r io.Reader) ([]types.Finding, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(CSVHeader)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if strings.Join(header, ",") != strings.Join(CSVHeader, ",") {
		return nil, fmt.Errorf("%w: %q", ErrCSVHeader, strings.Join(header, ","))
	}
	var out []types.Finding
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		size, err := strconv.ParseUint(row[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("csv filesize %q: %w", row[2], err)
		}
		sensitive, err := parseBool(row[5])
		if err != nil {
			return nil, err
		}
		out = append(out, types.Finding{
			RelativePath:   row[0],
			FileName:       row[1],
			FileSizeBytes:  size,
			FilenameRuleID: row[3],
			ContentRuleID:  row[4],
			IsSensitive:    sensitive,
			Snippet:        row[6],
			ContentDigest:  row[7],
		})
	}
	return out, nil
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("csv sensitive value %q is not True or False", s)
}
