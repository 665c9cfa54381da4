// Package ingest loads finding streams produced by this or earlier scanners,
// re-applies the masking policy and stores the records in SQLite.
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// maxLineBytes bounds a single JSON Lines record.
const maxLineBytes = 16 << 20

var ErrMalformedInput = errors.New("input is not a JSON array or JSON Lines stream")

// Options configures one ingestion run.
type Options struct {
	// CaseID is recorded for streams that do not carry their own.
	CaseID string
	// Output, when set, receives every accepted record as JSON Lines.
	Output io.Writer
	Logger zerolog.Logger
}

// Summary counts the outcome of one ingestion run.
type Summary struct {
	Read       int `json:"read"`
	Stored     int `json:"stored"`
	Duplicates int `json:"duplicates"`
	Malformed  int `json:"malformed"`
}

// Ingest reads a JSON array or JSON Lines stream from r into store. Records
// that cannot be decoded or normalised are counted and skipped.
func Ingest(ctx context.Context, r io.Reader, store *Store, opts Options) (Summary, error) {
	var sum Summary
	log := opts.Logger.With().Str("module", "ingest").Logger()

	tx, err := store.db.BeginTx(ctx, nil)
	if err != nil {
		return sum, fmt.Errorf("begin transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertQuery)
	if err != nil {
		_ = tx.Rollback()
		return sum, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	var enc *json.Encoder
	if opts.Output != nil {
		enc = json.NewEncoder(opts.Output)
	}
	now := time.Now().UTC()

	handle := func(data []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		sum.Read++
		rec, err := Normalize(data)
		if err != nil {
			sum.Malformed++
			log.Debug().Err(err).Int("record", sum.Read).Msg("skipping malformed record")
			return nil
		}
		if rec.CaseID == "" {
			rec.CaseID = opts.CaseID
		}
		added, err := insert(ctx, stmt, rec, now)
		if err != nil {
			return err
		}
		if added {
			sum.Stored++
		} else {
			sum.Duplicates++
		}
		if enc != nil {
			if err := enc.Encode(rec); err != nil {
				return fmt.Errorf("write output record: %w", err)
			}
		}
		return nil
	}

	if err := decodeStream(r, handle); err != nil {
		_ = tx.Rollback()
		log.Warn().Err(err).Msg("ingestion aborted")
		return sum, err
	}
	if err := tx.Commit(); err != nil {
		return sum, fmt.Errorf("commit: %w", err)
	}
	log.Info().
		Int("read", sum.Read).
		Int("stored", sum.Stored).
		Int("duplicates", sum.Duplicates).
		Int("malformed", sum.Malformed).
		Msg("ingestion finished")
	return sum, nil
}

// decodeStream calls handle with the raw bytes of every record. A stream
// whose first non-space byte is '[' is read as one JSON array; anything else
// is read line by line.
func decodeStream(r io.Reader, handle func([]byte) error) error {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if first == '[' {
		return decodeArray(br, handle)
	}
	return decodeLines(br, handle)
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n', 0xEF, 0xBB, 0xBF:
			continue
		}
		return b, br.UnreadByte()
	}
}

func decodeArray(r io.Reader, handle func([]byte) error) error {
	dec := json.NewDecoder(r)
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	for dec.More() {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		if err := handle(raw); err != nil {
			return err
		}
	}
	return nil
}

func decodeLines(r io.Reader, handle func([]byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := handle(line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}
