package report

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/walletscan/walletscan/internal/types"
)

// parquetFinding is the columnar form of types.Finding.
type parquetFinding struct {
	RelativePath   string `parquet:"relative_path,zstd"`
	FileName       string `parquet:"file_name,zstd"`
	FileSizeBytes  uint64 `parquet:"file_size_bytes"`
	FilenameRuleID string `parquet:"filename_rule_id,dict"`
	ContentRuleID  string `parquet:"content_rule_id,dict"`
	IsSensitive    bool   `parquet:"is_sensitive"`
	Snippet        string `parquet:"snippet,zstd"`
	ContentDigest  string `parquet:"content_digest"`
}

func toParquet(f types.Finding) parquetFinding {
	return parquetFinding(f)
}

// WriteParquet writes findings as a zstd-compressed Parquet file.
func WriteParquet(w io.Writer, findings []types.Finding) error {
	writer := parquet.NewGenericWriter[parquetFinding](w, parquet.Compression(&parquet.Zstd))
	rows := make([]parquetFinding, len(findings))
	for i, f := range findings {
		rows[i] = toParquet(f)
	}
	if len(rows) > 0 {
		if _, err := writer.Write(rows); err != nil {
			_ = writer.Close()
			return fmt.Errorf("write parquet rows: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// ReadParquet loads a Parquet artifact written by WriteParquet.
func ReadParquet(path string) ([]types.Finding, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := parquet.NewGenericReader[parquetFinding](f)
	defer reader.Close()

	var out []types.Finding
	batch := make([]parquetFinding, 64)
	for {
		n, err := reader.Read(batch)
		for _, row := range batch[:n] {
			out = append(out, types.Finding(row))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read parquet %s: %w", path, err)
		}
	}
	return out, nil
}
