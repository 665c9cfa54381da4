package ingest

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletscan/walletscan/internal/report"
	"github.com/walletscan/walletscan/internal/rules"
	"github.com/walletscan/walletscan/internal/types"
)

const hex64 = "1234567890abcdef1234567890abcdef1234567890abcdef1234567890abcdef"

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "db", "findings.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestIngest_CurrentArtifactAndDedup(t *testing.T) {
	findings := []types.Finding{
		{RelativePath: "a/wallet.dat", FileName: "wallet.dat", FileSizeBytes: 5, FilenameRuleID: "wallet", ContentDigest: "aa"},
		{RelativePath: "b/key.txt", FileName: "key.txt", FileSizeBytes: 80, ContentRuleID: rules.HexKeyPattern, IsSensitive: true, Snippet: types.RedactionMarker, ContentDigest: "bb"},
	}
	var buf bytes.Buffer
	require.NoError(t, report.WriteJSON(&buf, findings))

	s := openTestStore(t)
	ctx := context.Background()
	sum, err := Ingest(ctx, bytes.NewReader(buf.Bytes()), s, Options{CaseID: "case-7"})
	require.NoError(t, err)
	assert.Equal(t, Summary{Read: 2, Stored: 2}, sum)

	sum, err = Ingest(ctx, bytes.NewReader(buf.Bytes()), s, Options{})
	require.NoError(t, err)
	assert.Equal(t, Summary{Read: 2, Duplicates: 2}, sum)

	recs, err := s.Records(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, findings[0], recs[0].Finding)
	assert.Equal(t, findings[1], recs[1].Finding)
	assert.Equal(t, "case-7", recs[0].CaseID)
}

func TestIngest_HitStreamIsRemasked(t *testing.T) {
	lines := strings.Join([]string{
		`{"case":"C1","path":"Users\\bob\\key.txt","filesize":120,"pattern":"content:(?:(?:[a-f0-9]{64})\\b)","snippet":"priv ` + hex64 + `","sha256":"ABCD","timestamp":"2024-01-01T00:00:00Z","scanner_version":"0.1.0"}`,
		`{"case":"C1","path":"wallet.dat","filesize":9,"pattern":"filename:(?i)wallet","snippet":"note ` + hex64[:40] + `","sha256":"ef"}`,
		`{"case":"C1","path":"seed.txt","pattern":"content:([a-z]+(\\s+[a-z]+){11,24})","snippet":"abandon ability able about above absent absorb abstract absurd abuse access accident"}`,
		``,
	}, "\n")

	s := openTestStore(t)
	var out bytes.Buffer
	sum, err := Ingest(context.Background(), strings.NewReader(lines), s, Options{Output: &out})
	require.NoError(t, err)
	assert.Equal(t, Summary{Read: 3, Stored: 3}, sum)

	assert.NotContains(t, out.String(), hex64)
	assert.NotContains(t, out.String(), hex64[:40])
	assert.NotContains(t, out.String(), "absorb")

	recs, err := s.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 3)
	byPath := map[string]Record{}
	for _, r := range recs {
		byPath[r.RelativePath] = r
	}

	key := byPath["Users/bob/key.txt"]
	assert.Equal(t, rules.HexKeyPattern, key.ContentRuleID)
	assert.True(t, key.IsSensitive)
	assert.Equal(t, types.RedactionMarker, key.Snippet)
	assert.Equal(t, "key.txt", key.FileName)
	assert.Equal(t, uint64(120), key.FileSizeBytes)
	assert.Equal(t, "abcd", key.ContentDigest)
	assert.Equal(t, "C1", key.CaseID)
	assert.Equal(t, "0.1.0", key.ScannerVersion)
	assert.Equal(t, "2024-01-01T00:00:00Z", key.ObservedAt)

	wallet := byPath["wallet.dat"]
	assert.Equal(t, "wallet", wallet.FilenameRuleID)
	assert.False(t, wallet.IsSensitive)
	assert.Contains(t, wallet.Snippet, "123456")
	assert.Contains(t, wallet.Snippet, "*")

	seed := byPath["seed.txt"]
	assert.Equal(t, rules.PhrasePattern, seed.ContentRuleID)
	assert.Equal(t, types.RedactionMarker, seed.Snippet)
}

func TestIngest_PythonScannerRows(t *testing.T) {
	in := `[
	  {"path": "home/x/keystore.json", "filename": "keystore.json", "filesize": 300,
	   "filename_pattern": "keystore", "content_pattern": "\"crypto\"\\s*:", "sensitive": false,
	   "snippet": "{\"crypto\": {}}", "sha256": "cc"}
	]`
	s := openTestStore(t)
	sum, err := Ingest(context.Background(), strings.NewReader(in), s, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Stored)

	recs, err := s.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "keystore", recs[0].FilenameRuleID)
	assert.Equal(t, rules.KeystorePattern, recs[0].ContentRuleID)
	assert.False(t, recs[0].IsSensitive)
	assert.Equal(t, `{"crypto": {}}`, recs[0].Snippet)
}

func TestIngest_MalformedRecordsSkipped(t *testing.T) {
	lines := strings.Join([]string{
		`not json`,
		`{"path": ""}`,
		`{"path": "a.txt"}`,
		`{"path": "a.txt", "pattern": "weird:x"}`,
		`{"path": "a.txt", "filesize": "big", "pattern": "filename:wallet"}`,
		`{"path": "wallet.dat", "pattern": "filename:wallet"}`,
	}, "\n")
	s := openTestStore(t)
	sum, err := Ingest(context.Background(), strings.NewReader(lines), s, Options{})
	require.NoError(t, err)
	assert.Equal(t, Summary{Read: 6, Stored: 1, Malformed: 5}, sum)
}

func TestIngest_BrokenArrayIsFatal(t *testing.T) {
	s := openTestStore(t)
	_, err := Ingest(context.Background(), strings.NewReader(`[{"path":"wallet.dat","pattern":"filename:wallet"}, {`), s, Options{})
	assert.ErrorIs(t, err, ErrMalformedInput)

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "a failed batch is rolled back")
}

func TestIngest_EmptyInput(t *testing.T) {
	s := openTestStore(t)
	sum, err := Ingest(context.Background(), strings.NewReader("  \n"), s, Options{})
	require.NoError(t, err)
	assert.Equal(t, Summary{}, sum)
}

func TestIngest_CancelledContext(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Ingest(ctx, strings.NewReader(`{"path":"wallet.dat","pattern":"filename:wallet"}`), s, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalize_StripsFlags(t *testing.T) {
	assert.Equal(t, "wallet", stripFlags("(?i)wallet"))
	assert.Equal(t, `(?:(?:[a-f0-9]{64})\b)`, stripFlags(`(?:(?:[a-f0-9]{64})\b)`))
	assert.Equal(t, "btc", stripFlags("btc"))
}

func TestFingerprint(t *testing.T) {
	a := Record{Finding: types.Finding{RelativePath: "a", FilenameRuleID: "wallet"}}
	b := a
	b.CaseID = "other"
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	b.ContentDigest = "x"
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
	assert.Len(t, Fingerprint(a), 16)
}
