package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Store persists ingested records in a SQLite database, one row per
// distinct fingerprint.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// OpenStore opens or creates the database at dbPath and ensures the schema.
func OpenStore(dbPath string, logger zerolog.Logger) (*Store, error) {
	logger = logger.With().Str("module", "ingest_store").Logger()
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		logger.Error().Err(err).Str("directory", dbDir).Msg("Failed to create database directory")
		return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
	}

	dbInstance, err := sql.Open("sqlite", dbPath)
	if err != nil {
		logger.Error().Err(err).Str("db_path", dbPath).Msg("Failed to open database")
		return nil, fmt.Errorf("sql.Open failed for %s: %w", dbPath, err)
	}
	// one writer; sqlite serialises anyway
	dbInstance.SetMaxOpenConns(1)

	s := &Store{db: dbInstance, logger: logger}
	if err := s.InitSchema(); err != nil {
		_ = s.Close()
		logger.Error().Err(err).Msg("Failed to initialize database schema")
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logger.Debug().Str("path", dbPath).Msg("Database initialized and schema verified")
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InitSchema creates the findings table if it doesn't already exist.
func (s *Store) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS findings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fingerprint TEXT NOT NULL UNIQUE,
		case_id TEXT,
		relative_path TEXT NOT NULL,
		file_name TEXT,
		file_size_bytes INTEGER,
		filename_rule_id TEXT,
		content_rule_id TEXT,
		is_sensitive INTEGER NOT NULL,
		snippet TEXT,
		content_digest TEXT,
		observed_at TEXT,
		scanner_version TEXT,
		ingested_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_findings_relative_path ON findings (relative_path);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create findings table: %w", err)
	}
	return nil
}

// Fingerprint identifies a record for deduplication.
func Fingerprint(r Record) string {
	key := r.RelativePath + "|" + r.ContentDigest + "|" + r.FilenameRuleID + "|" + r.ContentRuleID
	return fmt.Sprintf("%016x", xxhash.Sum64String(key))
}

const insertQuery = `
	INSERT OR IGNORE INTO findings (
		fingerprint, case_id, relative_path, file_name, file_size_bytes,
		filename_rule_id, content_rule_id, is_sensitive, snippet,
		content_digest, observed_at, scanner_version, ingested_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// insert adds r unless its fingerprint is already stored. It reports
// whether a row was added.
func insert(ctx context.Context, stmt *sql.Stmt, r Record, now time.Time) (bool, error) {
	res, err := stmt.ExecContext(ctx,
		Fingerprint(r), r.CaseID, r.RelativePath, r.FileName, int64(r.FileSizeBytes),
		r.FilenameRuleID, r.ContentRuleID, r.IsSensitive, r.Snippet,
		r.ContentDigest, r.ObservedAt, r.ScannerVersion, now,
	)
	if err != nil {
		return false, fmt.Errorf("insert %s: %w", r.RelativePath, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM findings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count findings: %w", err)
	}
	return n, nil
}

// Records returns every stored record ordered by path.
func (s *Store) Records(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT case_id, relative_path, file_name, file_size_bytes, filename_rule_id,
		       content_rule_id, is_sensitive, snippet, content_digest, observed_at, scanner_version
		FROM findings ORDER BY relative_path, id`)
	if err != nil {
		return nil, fmt.Errorf("query findings: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r                                     Record
			caseID, name, frule, crule, snip, dig sql.NullString
			observed, version                     sql.NullString
			size                                  sql.NullInt64
		)
		if err := rows.Scan(&caseID, &r.RelativePath, &name, &size, &frule, &crule,
			&r.IsSensitive, &snip, &dig, &observed, &version); err != nil {
			return nil, fmt.Errorf("scan finding row: %w", err)
		}
		r.CaseID = caseID.String
		r.FileName = name.String
		if size.Valid && size.Int64 > 0 {
			r.FileSizeBytes = uint64(size.Int64)
		}
		r.FilenameRuleID = frule.String
		r.ContentRuleID = crule.String
		r.Snippet = snip.String
		r.ContentDigest = dig.String
		r.ObservedAt = observed.String
		r.ScannerVersion = version.String
		out = append(out, r)
	}
	return out, rows.Err()
}
