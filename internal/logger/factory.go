package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// WriterStrategy wraps a destination in a format-specific writer.
type WriterStrategy interface {
	CreateWriter(out io.Writer) io.Writer
}

// JSONWriterStrategy writes raw zerolog JSON lines.
type JSONWriterStrategy struct{}

func (JSONWriterStrategy) CreateWriter(out io.Writer) io.Writer { return out }

// ConsoleWriterStrategy writes human readable, optionally coloured lines.
type ConsoleWriterStrategy struct {
	NoColor bool
}

func (s ConsoleWriterStrategy) CreateWriter(out io.Writer) io.Writer {
	return zerolog.ConsoleWriter{Out: out, NoColor: s.NoColor, TimeFormat: time.Kitchen}
}

// TextWriterStrategy writes plain uncoloured lines with full timestamps.
type TextWriterStrategy struct{}

func (TextWriterStrategy) CreateWriter(out io.Writer) io.Writer {
	return zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: time.RFC3339}
}

// WriterFactory creates writers based on format
type WriterFactory struct {
	strategies map[LogFormat]WriterStrategy
}

// NewWriterFactory creates a new writer factory
func NewWriterFactory(noColor bool) *WriterFactory {
	return &WriterFactory{
		strategies: map[LogFormat]WriterStrategy{
			FormatJSON:    JSONWriterStrategy{},
			FormatConsole: ConsoleWriterStrategy{NoColor: noColor},
			FormatText:    TextWriterStrategy{},
		},
	}
}

// CreateConsoleWriter creates the terminal writer.
func (wf *WriterFactory) CreateConsoleWriter(format LogFormat, out io.Writer) io.Writer {
	if out == nil {
		out = os.Stderr
	}
	strategy, exists := wf.strategies[format]
	if !exists {
		strategy = ConsoleWriterStrategy{}
	}
	return strategy.CreateWriter(out)
}

// CreateFileWriter creates a rotating file writer. Console format is written
// without colour codes.
func (wf *WriterFactory) CreateFileWriter(config LoggerConfig) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0755); err != nil {
		return nil, err
	}
	lumberjackLogger := &lumberjack.Logger{
		Filename:   config.FilePath,
		MaxSize:    config.MaxSizeMB,
		MaxBackups: config.MaxBackups,
		LocalTime:  false,
	}
	if config.Format == FormatConsole {
		return ConsoleWriterStrategy{NoColor: true}.CreateWriter(lumberjackLogger), nil
	}
	strategy, exists := wf.strategies[config.Format]
	if !exists {
		strategy = JSONWriterStrategy{}
	}
	return strategy.CreateWriter(lumberjackLogger), nil
}
