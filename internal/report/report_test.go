package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletscan/walletscan/internal/types"
)

func sampleFindings() []types.Finding {
	return []types.Finding{
		{
			RelativePath:   "home/user/wallet.dat",
			FileName:       "wallet.dat",
			FileSizeBytes:  5,
			FilenameRuleID: "wallet",
			ContentDigest:  "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		},
		{
			RelativePath:  "notes/key, \"quoted\".txt",
			FileName:      "key, \"quoted\".txt",
			FileSizeBytes: 78,
			ContentRuleID: `[a-f0-9]{64}\b`,
			IsSensitive:   true,
			Snippet:       types.RedactionMarker,
			ContentDigest: "ab",
		},
		{
			RelativePath:  "keystore/UTC--2024.json",
			FileName:      "UTC--2024.json",
			FileSizeBytes: 512,
			ContentRuleID: `"crypto"\s*:`,
			Snippet:       "{\"crypto\": {\"cipher\":\n \"aes-128-ctr\"}}",
			ContentDigest: "cd",
		},
	}
}

func TestTimestamp(t *testing.T) {
	loc := time.FixedZone("X", 5*3600)
	ts := time.Date(2024, 3, 9, 17, 4, 5, 0, loc)
	assert.Equal(t, "20240309T120405Z", Timestamp(ts))
}

func TestWriteJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
}

func TestWriteJSON_FieldNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleFindings()[:1]))
	out := buf.String()
	for _, key := range []string{"relative_path", "file_name", "file_size_bytes", "filename_rule_id", "content_rule_id", "is_sensitive", "snippet", "content_digest"} {
		assert.Contains(t, out, `"`+key+`"`)
	}
	back, err := ReadJSON(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, sampleFindings()[:1], back)
}

func TestCSV_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := sampleFindings()
	require.NoError(t, WriteCSV(&buf, in))

	lines := strings.SplitN(buf.String(), "\n", 2)
	assert.Equal(t, "path,filename,filesize,filename_pattern,content_pattern,sensitive,snippet,sha256", lines[0])
	assert.Contains(t, buf.String(), ",True,")
	assert.Contains(t, buf.String(), ",False,")

	out, err := ReadCSV(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, out, len(in))
	for i := range in {
		assert.Equal(t, in[i].RelativePath, out[i].RelativePath)
		assert.Equal(t, in[i].Snippet, out[i].Snippet)
		assert.Equal(t, in[i].ContentDigest, out[i].ContentDigest)
	}
	assert.Equal(t, in, out)
}

func TestReadCSV_RejectsWrongHeader(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("path,filename,size,filename_pattern,content_pattern,sensitive,snippet,sha256\n"))
	assert.ErrorIs(t, err, ErrCSVHeader)

	_, err = ReadCSV(strings.NewReader(strings.Join(CSVHeader, ",") + "\na,b,notanumber,,,False,,\n"))
	assert.Error(t, err)
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	arts, err := WriteArtifacts(dir, "20240101T000000Z", sampleFindings(), ArtifactOptions{Parquet: true})
	require.NoError(t, err)
	assert.Empty(t, arts.Warnings)
	assert.Equal(t, filepath.Join(dir, "scan_results_20240101T000000Z.json"), arts.JSON)
	assert.Equal(t, filepath.Join(dir, "scan_results_20240101T000000Z.csv"), arts.CSV)
	assert.Equal(t, filepath.Join(dir, "scan_results_20240101T000000Z.parquet"), arts.Parquet)

	f, err := os.Open(arts.CSV)
	require.NoError(t, err)
	defer f.Close()
	fromCSV, err := ReadCSV(f)
	require.NoError(t, err)
	assert.Equal(t, sampleFindings(), fromCSV)

	fromParquet, err := ReadParquet(arts.Parquet)
	require.NoError(t, err)
	assert.Equal(t, sampleFindings(), fromParquet)
}

func TestWriteArtifacts_OneFailsOthersWritten(t *testing.T) {
	dir := t.TempDir()
	stamp := "20240101T000000Z"
	// a directory where the JSON file should go makes that artifact fail
	require.NoError(t, os.Mkdir(ArtifactPath(dir, stamp, "json"), 0o755))

	arts, err := WriteArtifacts(dir, stamp, sampleFindings(), ArtifactOptions{})
	assert.True(t, errors.Is(err, ErrPartialOutput))
	assert.Empty(t, arts.JSON)
	assert.NotEmpty(t, arts.CSV)
	require.Len(t, arts.Warnings, 1)
	_, statErr := os.Stat(arts.CSV)
	assert.NoError(t, statErr)
}

func TestWriteArtifacts_AllFail(t *testing.T) {
	dir := t.TempDir()
	stamp := "20240101T000000Z"
	require.NoError(t, os.Mkdir(ArtifactPath(dir, stamp, "json"), 0o755))
	require.NoError(t, os.Mkdir(ArtifactPath(dir, stamp, "csv"), 0o755))

	arts, err := WriteArtifacts(dir, stamp, nil, ArtifactOptions{})
	assert.ErrorIs(t, err, ErrNoOutput)
	assert.Empty(t, arts.Paths())
	assert.Len(t, arts.Warnings, 2)
}

func TestEnsureOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureOutputDir(dir))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	assert.Error(t, EnsureOutputDir(file))
	assert.Error(t, EnsureOutputDir(filepath.Join(file, "sub")))
	assert.Error(t, EnsureOutputDir(""))
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	sum := Summary{
		Root:     "/evidence",
		Findings: sampleFindings(),
		Counters: []Counter{{"Files visited", 10}, {"Sensitive", 1}},
		Duration: 1500 * time.Millisecond,
	}
	arts := Artifacts{JSON: "/out/a.json", Warnings: []string{"create /out/a.csv: denied"}}
	require.NoError(t, PrintSummary(&buf, sum, arts, PrintOptions{NoColor: true}))
	out := buf.String()
	assert.Contains(t, out, "Findings: 3")
	assert.Contains(t, out, "home/user/wallet.dat")
	assert.Contains(t, out, "YES")
	assert.Contains(t, out, "/evidence")
	assert.Contains(t, out, "1.50s")
	assert.Contains(t, out, "Wrote /out/a.json")
	assert.Contains(t, out, "warning: create /out/a.csv: denied")
	assert.NotContains(t, out, "\x1b[")
}

func TestPrintSummary_NoFindings(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintSummary(&buf, Summary{Counters: []Counter{{"Files visited", 3}}}, Artifacts{}, PrintOptions{NoColor: true}))
	assert.Contains(t, buf.String(), "No wallet artifacts found")
}

func TestPrintFindings_MaxRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintFindings(&buf, sampleFindings(), PrintOptions{NoColor: true, MaxRows: 1}))
	assert.Contains(t, buf.String(), "2 more")
	assert.NotContains(t, buf.String(), "UTC--2024.json")
}
