package engine

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/walletscan/walletscan/internal/classify"
	"github.com/walletscan/walletscan/internal/hasher"
	"github.com/walletscan/walletscan/internal/rules"
	"github.com/walletscan/walletscan/internal/types"
)

// outcome is the result of evaluating one candidate. Only the collector
// folds it into Stats.
type outcome struct {
	finding   types.Finding
	readErr   bool
	hashErr   bool
	truncated bool
	special   bool
}

func (s *Stats) add(o outcome) {
	if o.readErr {
		s.ReadErrors++
	}
	if o.hashErr {
		s.HashErrors++
	}
	if o.truncated {
		s.TruncatedReads++
	}
	if o.special {
		s.SpecialFiles++
	}
}

// evaluate checks the name, then the bounded content, classifies a content
// match and digests the file if anything matched. Failures leave the
// affected field empty.
func evaluate(cfg Config, c Candidate, log zerolog.Logger) outcome {
	var o outcome
	f := types.Finding{RelativePath: c.Rel, FileName: c.Name}
	if c.Size > 0 {
		f.FileSizeBytes = uint64(c.Size)
	}
	if r, ok := rules.MatchFilename(c.Name); ok {
		f.FilenameRuleID = r.ID
	}

	if !c.Mode.IsRegular() {
		// devices, FIFOs and sockets may block or never end
		o.special = true
		log.Debug().Str("path", c.Rel).Str("mode", c.Mode.String()).Msg("special file matched by name only")
		o.finding = f
		return o
	}

	text, truncated, err := readContent(c.Path, c.Size, cfg.FullReadLimit, cfg.PrefixReadBytes)
	o.truncated = truncated
	if err != nil {
		o.readErr = true
		log.Debug().Err(err).Str("path", c.Rel).Msg("content not readable")
	}
	if m, ok := rules.MatchContent(text); ok {
		f.ContentRuleID = m.Rule.ID
		f.Snippet, f.IsSensitive = classify.Snippet(text, m)
	}

	if f.Matched() {
		digest, err := hasher.Digest(c.Path)
		if err != nil {
			o.hashErr = true
			log.Debug().Err(err).Str("path", c.Rel).Msg("digest failed")
		}
		f.ContentDigest = digest
	}
	o.finding = f
	return o
}

// readContent returns the searchable text of a file: all of it when size is
// within fullLimit, otherwise the first prefix bytes. Invalid UTF-8 is
// replaced with U+FFFD.
func readContent(path string, size, fullLimit, prefix int64) (string, bool, error) {
	limit, truncated := fullLimit, false
	if size > fullLimit {
		limit, truncated = prefix, true
	}
	f, err := os.Open(path)
	if err != nil {
		return "", truncated, err
	}
	defer f.Close()
	b, err := io.ReadAll(io.LimitReader(f, limit))
	if err != nil {
		return "", truncated, err
	}
	return strings.ToValidUTF8(string(b), "\uFFFD"), truncated, nil
}
