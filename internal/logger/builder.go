// Package logger builds the zerolog loggers used across walletscan: a
// console writer on stderr and an optional rotating log file.
package logger

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// LoggerBuilder provides fluent interface for building loggers
type LoggerBuilder struct {
	config LoggerConfig
	err    error
}

// NewLoggerBuilder creates a new logger builder
func NewLoggerBuilder() *LoggerBuilder {
	return &LoggerBuilder{config: DefaultLoggerConfig()}
}

// WithConfig replaces the whole configuration.
func (lb *LoggerBuilder) WithConfig(cfg LoggerConfig) *LoggerBuilder {
	lb.config = cfg
	return lb
}

// WithLevel sets the level by name. An unknown name fails Build.
func (lb *LoggerBuilder) WithLevel(level string) *LoggerBuilder {
	l, err := ParseLevel(level)
	if err != nil {
		lb.err = err
		return lb
	}
	lb.config.Level = l
	return lb
}

// WithFormat sets the output format by name.
func (lb *LoggerBuilder) WithFormat(format string) *LoggerBuilder {
	lb.config.Format = ParseFormat(format)
	return lb
}

// WithConsole redirects console output, mostly for tests.
func (lb *LoggerBuilder) WithConsole(w io.Writer) *LoggerBuilder {
	lb.config.Console = w
	return lb
}

// WithNoColor disables ANSI colours on the console writer.
func (lb *LoggerBuilder) WithNoColor(noColor bool) *LoggerBuilder {
	lb.config.NoColor = noColor
	return lb
}

// WithFile enables rotating file output.
func (lb *LoggerBuilder) WithFile(path string, maxSizeMB, maxBackups int) *LoggerBuilder {
	lb.config.FilePath = path
	if maxSizeMB > 0 {
		lb.config.MaxSizeMB = maxSizeMB
	}
	if maxBackups >= 0 {
		lb.config.MaxBackups = maxBackups
	}
	return lb
}

// Build creates the logger instance
func (lb *LoggerBuilder) Build() (zerolog.Logger, error) {
	if lb.err != nil {
		return zerolog.Nop(), lb.err
	}
	if err := lb.validateConfig(); err != nil {
		return zerolog.Nop(), err
	}

	factory := NewWriterFactory(lb.config.NoColor)
	writers := []io.Writer{factory.CreateConsoleWriter(lb.config.Format, lb.config.Console)}
	if lb.config.FilePath != "" {
		fw, err := factory.CreateFileWriter(lb.config)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("open log file %s: %w", lb.config.FilePath, err)
		}
		writers = append(writers, fw)
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lb.config.Level).
		With().
		Timestamp().
		Logger(), nil
}

// validateConfig validates the logger configuration
func (lb *LoggerBuilder) validateConfig() error {
	if lb.config.FilePath != "" && lb.config.MaxSizeMB <= 0 {
		return errors.New("log max size must be positive")
	}
	if lb.config.MaxBackups < 0 {
		return errors.New("log max backups must not be negative")
	}
	return nil
}
