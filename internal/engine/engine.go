package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/walletscan/walletscan/internal/types"
)

// Bounded read policy. Files up to DefaultFullReadLimit bytes are searched in
// full; larger files only have their first DefaultPrefixReadBytes searched.
// Matches beyond the prefix of a large file are missed.
const (
	DefaultFullReadLimit   int64 = 2_000_000
	DefaultPrefixReadBytes int64 = 100_000
)

var (
	ErrRootNotFound   = errors.New("scan root does not exist")
	ErrRootNotDir     = errors.New("scan root is not a directory")
	ErrRootUnreadable = errors.New("scan root is not readable")
)

// Config controls scan scope, read limits and parallelism.
type Config struct {
	Root            string
	IncludeGlobs    string
	ExcludeGlobs    string
	DefaultExcludes bool
	Threads         int
	FullReadLimit   int64
	PrefixReadBytes int64
	Logger          zerolog.Logger
	// Progress is called once per evaluated file from a single goroutine.
	Progress func()
}

func (c Config) withDefaults() Config {
	if c.FullReadLimit <= 0 {
		c.FullReadLimit = DefaultFullReadLimit
	}
	if c.PrefixReadBytes <= 0 {
		c.PrefixReadBytes = DefaultPrefixReadBytes
	}
	if c.PrefixReadBytes > c.FullReadLimit {
		c.PrefixReadBytes = c.FullReadLimit
	}
	return c
}

// Stats counts what the scan saw. Per-file failures never abort a scan; they
// show up here instead.
type Stats struct {
	FilesVisited    int `json:"files_visited"`
	DirsVisited     int `json:"dirs_visited"`
	Findings        int `json:"findings"`
	Sensitive       int `json:"sensitive"`
	ReadErrors      int `json:"read_errors"`
	HashErrors      int `json:"hash_errors"`
	WalkErrors      int `json:"walk_errors"`
	SymlinksSkipped int `json:"symlinks_skipped"`
	SpecialFiles    int `json:"special_files"`
	TruncatedReads  int `json:"truncated_reads"`
	ExcludedByGlobs int `json:"excluded_by_globs"`
	ExcludedDirs    int `json:"excluded_dirs"`
}

// Result contains findings sorted by relative path plus scan statistics.
type Result struct {
	Root     string
	Findings []types.Finding
	Stats    Stats
	Duration time.Duration
}

// ValidateRoot resolves root to an absolute, symlink-free path and checks
// that it is a readable directory.
func ValidateRoot(root string) (string, error) {
	if root == "" {
		return "", fmt.Errorf("%w: empty path", ErrRootNotFound)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrRootUnreadable, root, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrRootNotFound, root)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrRootUnreadable, root, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrRootUnreadable, root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrRootNotDir, root)
	}
	d, err := os.Open(resolved)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrRootUnreadable, root, err)
	}
	defer d.Close()
	if _, err := d.ReadDir(1); err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("%w: %s: %v", ErrRootUnreadable, root, err)
	}
	return resolved, nil
}

// Scan runs a scan and returns only findings (without stats).
func Scan(ctx context.Context, cfg Config) ([]types.Finding, error) {
	res, err := ScanWithStats(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return res.Findings, nil
}

// ScanWithStats runs a scan and returns findings along with timing and counts.
// Only root validation failures and context cancellation produce an error.
func ScanWithStats(ctx context.Context, cfg Config) (Result, error) {
	var result Result
	if ctx == nil {
		ctx = context.Background()
	}
	root, err := ValidateRoot(cfg.Root)
	if err != nil {
		return result, err
	}
	cfg = cfg.withDefaults()
	cfg.Root = root
	result.Root = root
	log := cfg.Logger.With().Str("module", "engine").Logger()
	log.Info().Str("root", root).Int("threads", cfg.Threads).Msg("scan started")

	started := time.Now()
	var (
		found []types.Finding
		stats Stats
	)
	collect := func(o outcome) {
		stats.FilesVisited++
		stats.add(o)
		if o.finding.Matched() {
			found = append(found, o.finding)
			stats.Findings++
			if o.finding.IsSensitive {
				stats.Sensitive++
			}
		}
		if cfg.Progress != nil {
			cfg.Progress()
		}
	}

	var walkStats Stats
	if cfg.Threads <= 1 {
		err = Walk(ctx, cfg, &walkStats, func(c Candidate) error {
			collect(evaluate(cfg, c, log))
			return nil
		})
	} else {
		err = scanParallel(ctx, cfg, &walkStats, collect, log)
	}
	if err != nil {
		log.Warn().Err(err).Msg("scan aborted")
		return Result{Root: root}, err
	}

	stats.DirsVisited = walkStats.DirsVisited
	stats.WalkErrors = walkStats.WalkErrors
	stats.SymlinksSkipped = walkStats.SymlinksSkipped
	stats.ExcludedByGlobs = walkStats.ExcludedByGlobs
	stats.ExcludedDirs = walkStats.ExcludedDirs

	sort.Slice(found, func(i, j int) bool { return found[i].RelativePath < found[j].RelativePath })
	result.Findings = found
	result.Stats = stats
	result.Duration = time.Since(started)
	log.Info().
		Int("files", stats.FilesVisited).
		Int("findings", stats.Findings).
		Int("sensitive", stats.Sensitive).
		Dur("duration", result.Duration).
		Msg("scan finished")
	return result, nil
}

// scanParallel feeds candidates from the walker to a fixed pool of workers.
// A single collector goroutine owns the findings slice and the counters.
func scanParallel(ctx context.Context, cfg Config, walkStats *Stats, collect func(outcome), log zerolog.Logger) error {
	jobs := make(chan Candidate, cfg.Threads*4)
	outs := make(chan outcome, cfg.Threads*4)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				outs <- evaluate(cfg, c, log)
			}
		}()
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for o := range outs {
			collect(o)
		}
	}()

	err := Walk(ctx, cfg, walkStats, func(c Candidate) error {
		select {
		case jobs <- c:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	close(jobs)
	wg.Wait()
	close(outs)
	<-done
	return err
}
