package engine

import (
	"context"
	"io/fs"
	"path/filepath"
)

// Candidate is a non-directory entry that survived the scope filters.
type Candidate struct {
	Path string // absolute path on disk
	Rel  string // forward-slash path relative to the scan root
	Name string
	Size int64
	Mode fs.FileMode // type bits only
}

// Walk traverses cfg.Root depth-first in lexical order and calls handle for
// each candidate file. Symlinks are counted and never followed. Unreadable
// entries are counted and skipped. Walk stops early only when ctx is done or
// handle returns an error.
func Walk(ctx context.Context, cfg Config, stats *Stats, handle func(Candidate) error) error {
	if stats == nil {
		stats = &Stats{}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	globs := newGlobFilter(cfg.IncludeGlobs, cfg.ExcludeGlobs)
	log := cfg.Logger.With().Str("module", "walk").Logger()

	return filepath.WalkDir(cfg.Root, func(p string, d fs.DirEntry, err error) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err != nil {
			stats.WalkErrors++
			log.Debug().Err(err).Str("path", p).Msg("skipping unreadable entry")
			return nil
		}
		rel, rerr := filepath.Rel(cfg.Root, p)
		if rerr != nil {
			stats.WalkErrors++
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.Type()&fs.ModeSymlink != 0 {
			stats.SymlinksSkipped++
			log.Debug().Str("path", rel).Msg("symlink not followed")
			return nil
		}
		if d.IsDir() {
			if cfg.DefaultExcludes && isDefaultDirExcluded(rel) {
				stats.ExcludedDirs++
				return filepath.SkipDir
			}
			stats.DirsVisited++
			return nil
		}
		if !globs.allowed(rel) {
			stats.ExcludedByGlobs++
			return nil
		}

		c := Candidate{Path: p, Rel: rel, Name: d.Name(), Mode: d.Type()}
		if info, ierr := d.Info(); ierr == nil {
			c.Size = info.Size()
		} else {
			log.Debug().Err(ierr).Str("path", rel).Msg("stat failed")
		}
		return handle(c)
	})
}
