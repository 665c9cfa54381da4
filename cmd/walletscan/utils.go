package walletscan

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/walletscan/walletscan/internal/config"
	"github.com/walletscan/walletscan/internal/logger"
)

func pickString(cli string, local, global *string) string {
	if cli != "" {
		return cli
	}
	if local != nil && *local != "" {
		return *local
	}
	if global != nil && *global != "" {
		return *global
	}
	return ""
}

func pickInt(cli int, local, global *int) int {
	if cli != 0 {
		return cli
	}
	if local != nil && *local != 0 {
		return *local
	}
	if global != nil && *global != 0 {
		return *global
	}
	return 0
}

func pickInt64(cli int64, local, global *int64) int64 {
	if cli != 0 {
		return cli
	}
	if local != nil && *local != 0 {
		return *local
	}
	if global != nil && *global != 0 {
		return *global
	}
	return 0
}

func pickBool(cli bool, local, global *bool) bool {
	if cli {
		return true
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return false
}

func orString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orInt64(v, def int64) int64 {
	if v == 0 {
		return def
	}
	return v
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// loadFileConfigs returns the local and global config layers. --config
// replaces the local search. A missing file is not an error; a broken one is.
func loadFileConfigs() (local, global config.FileConfig, err error) {
	if c, gerr := config.LoadGlobal(); gerr == nil {
		global = c
	} else if !errors.Is(gerr, config.ErrNoConfig) && !os.IsNotExist(gerr) {
		return local, global, gerr
	}
	if flagConfig != "" {
		local, err = config.LoadFile(flagConfig)
		if err != nil {
			return local, global, fmt.Errorf("load config %s: %w", flagConfig, err)
		}
		return local, global, nil
	}
	cwd, cerr := os.Getwd()
	if cerr != nil {
		return local, global, nil
	}
	if c, lerr := config.LoadLocal(cwd); lerr == nil {
		local = c
	} else if !errors.Is(lerr, config.ErrNoConfig) {
		return local, global, lerr
	}
	return local, global, nil
}

// resolveSettings merges CLI > local > global > defaults and validates the
// result.
func resolveSettings() (config.Settings, error) {
	d := config.DefaultSettings()
	lcfg, gcfg, err := loadFileConfigs()
	if err != nil {
		return d, fmt.Errorf("%w: %v", config.ErrInvalidSettings, err)
	}
	llog, glog := lcfg.LogSection(), gcfg.LogSection()

	s := config.Settings{
		Include:         pickString(flagInclude, lcfg.Include, gcfg.Include),
		Exclude:         pickString(flagExclude, lcfg.Exclude, gcfg.Exclude),
		DefaultExcludes: pickBool(flagDefaultExcludes, lcfg.DefaultExcludes, gcfg.DefaultExcludes),
		Threads:         pickInt(flagThreads, lcfg.Threads, gcfg.Threads),
		FullReadLimit:   orInt64(pickInt64(flagFullReadLimit, lcfg.FullReadLimit, gcfg.FullReadLimit), d.FullReadLimit),
		PrefixReadBytes: orInt64(pickInt64(flagPrefixReadBytes, lcfg.PrefixReadBytes, gcfg.PrefixReadBytes), d.PrefixReadBytes),
		OutDir:          orString(pickString(flagOutDir, lcfg.OutDir, gcfg.OutDir), d.OutDir),
		Parquet:         pickBool(flagParquet, lcfg.Parquet, gcfg.Parquet),
		NoColor:         pickBool(flagNoColor, lcfg.NoColor, gcfg.NoColor),
		LogLevel:        orString(pickString(flagLogLevel, llog.Level, glog.Level), d.LogLevel),
		LogFormat:       orString(pickString(flagLogFormat, llog.Format, glog.Format), d.LogFormat),
		LogFile:         pickString(flagLogFile, llog.File, glog.File),
		LogMaxSizeMB:    orInt(pickInt(0, llog.MaxSizeMB, glog.MaxSizeMB), d.LogMaxSizeMB),
		LogMaxBackups:   orInt(pickInt(0, llog.MaxBackups, glog.MaxBackups), d.LogMaxBackups),
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// buildLogger creates the process logger on stderr, colourless unless
// stderr is a terminal.
func buildLogger(s config.Settings, stderr io.Writer) (zerolog.Logger, error) {
	return logger.NewLoggerBuilder().
		WithConsole(stderr).
		WithLevel(s.LogLevel).
		WithFormat(s.LogFormat).
		WithNoColor(s.NoColor || !isTerminal(stderr)).
		WithFile(s.LogFile, s.LogMaxSizeMB, s.LogMaxBackups).
		Build()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
