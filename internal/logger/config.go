package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// LoggerConfig holds configuration for logger setup
type LoggerConfig struct {
	Level      zerolog.Level
	Format     LogFormat
	NoColor    bool
	Console    io.Writer // nil means os.Stderr
	FilePath   string    // empty disables file logging
	MaxSizeMB  int
	MaxBackups int
}

// LogFormat represents available log formats
type LogFormat int

const (
	FormatConsole LogFormat = iota
	FormatJSON
	FormatText
)

// String returns string representation of LogFormat
func (lf LogFormat) String() string {
	switch lf {
	case FormatJSON:
		return "json"
	case FormatText:
		return "text"
	default:
		return "console"
	}
}

// DefaultLoggerConfig returns default logger configuration
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:      zerolog.InfoLevel,
		Format:     FormatConsole,
		MaxSizeMB:  100,
		MaxBackups: 3,
	}
}

// ParseLevel parses a case-insensitive level name.
func ParseLevel(s string) (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// ParseFormat maps a format name to LogFormat, defaulting to console.
func ParseFormat(s string) LogFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	case "text":
		return FormatText
	default:
		return FormatConsole
	}
}
