package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var ErrNoConfig = errors.New("no config file")

// LocalFileNames are searched in order in the working directory.
var LocalFileNames = []string{".walletscan.yml", ".walletscan.yaml", "walletscan.yml", "walletscan.yaml"}

// FileConfig is the on-disk YAML configuration shape. Pointer fields tell an
// unset key apart from a zero value.
type FileConfig struct {
	Include         *string `yaml:"include,omitempty"`
	Exclude         *string `yaml:"exclude,omitempty"`
	DefaultExcludes *bool   `yaml:"default_excludes,omitempty"`
	Threads         *int    `yaml:"threads,omitempty"`
	FullReadLimit   *int64  `yaml:"full_read_limit,omitempty"`
	PrefixReadBytes *int64  `yaml:"prefix_read_bytes,omitempty"`

	OutDir  *string `yaml:"outdir,omitempty"`
	Parquet *bool   `yaml:"parquet,omitempty"`
	NoColor *bool   `yaml:"no_color,omitempty"`

	Log *LogConfig `yaml:"log,omitempty"`
}

// LogConfig mirrors the logging flags.
type LogConfig struct {
	Level      *string `yaml:"level,omitempty"`
	Format     *string `yaml:"format,omitempty"`
	File       *string `yaml:"file,omitempty"`
	MaxSizeMB  *int    `yaml:"max_size_mb,omitempty"`
	MaxBackups *int    `yaml:"max_backups,omitempty"`
}

// LogSection returns the log block, empty when absent.
func (fc FileConfig) LogSection() LogConfig {
	if fc.Log == nil {
		return LogConfig{}
	}
	return *fc.Log
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadLocal searches dir for a local config file. The CLI passes the
// working directory; the evidence tree is never searched.
func LoadLocal(dir string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range LocalFileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, ErrNoConfig
}

// GlobalPath returns the global config location under XDG_CONFIG_HOME or
// ~/.config.
func GlobalPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return "", errors.New("no config dir")
	}
	return filepath.Join(base, "walletscan", "config.yml"), nil
}

// LoadGlobal loads the global config file.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	p, err := GlobalPath()
	if err != nil {
		return cfg, err
	}
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, ErrNoConfig
}

// Marshal renders fc as YAML.
func Marshal(fc FileConfig) ([]byte, error) {
	return yaml.Marshal(fc)
}
