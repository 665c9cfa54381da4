package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Settings is the fully merged configuration a command runs with.
type Settings struct {
	Include         string
	Exclude         string
	DefaultExcludes bool
	Threads         int   `validate:"gte=0,lte=256"`
	FullReadLimit   int64 `validate:"gt=0"`
	PrefixReadBytes int64 `validate:"gt=0,ltefield=FullReadLimit"`

	OutDir  string `validate:"required"`
	Parquet bool
	NoColor bool

	LogLevel      string `validate:"loglevel"`
	LogFormat     string `validate:"logformat"`
	LogFile       string
	LogMaxSizeMB  int `validate:"gt=0"`
	LogMaxBackups int `validate:"gte=0"`
}

const (
	DefaultFullReadLimit   int64 = 2_000_000
	DefaultPrefixReadBytes int64 = 100_000
	DefaultOutDir                = "reports"
	DefaultLogLevel              = "info"
	DefaultLogFormat             = "console"
	DefaultLogMaxSizeMB          = 100
	DefaultLogMaxBackups         = 3
)

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		FullReadLimit:   DefaultFullReadLimit,
		PrefixReadBytes: DefaultPrefixReadBytes,
		OutDir:          DefaultOutDir,
		LogLevel:        DefaultLogLevel,
		LogFormat:       DefaultLogFormat,
		LogMaxSizeMB:    DefaultLogMaxSizeMB,
		LogMaxBackups:   DefaultLogMaxBackups,
	}
}

// Template is the file written by "config init": the defaults with every
// key present.
func Template() FileConfig {
	d := DefaultSettings()
	return FileConfig{
		Include:         &d.Include,
		Exclude:         &d.Exclude,
		DefaultExcludes: &d.DefaultExcludes,
		Threads:         &d.Threads,
		FullReadLimit:   &d.FullReadLimit,
		PrefixReadBytes: &d.PrefixReadBytes,
		OutDir:          &d.OutDir,
		Parquet:         &d.Parquet,
		NoColor:         &d.NoColor,
		Log: &LogConfig{
			Level:      &d.LogLevel,
			Format:     &d.LogFormat,
			MaxSizeMB:  &d.LogMaxSizeMB,
			MaxBackups: &d.LogMaxBackups,
		},
	}
}

var ErrInvalidSettings = errors.New("invalid configuration")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
			return true
		}
		return false
	})
	_ = v.RegisterValidation("logformat", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "console", "text", "json":
			return true
		}
		return false
	})
	return v
}

// Validate checks field bounds and cross-field constraints.
func (s Settings) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "ltefield":
		return fmt.Sprintf("%s (%v) must not exceed %s", fe.Field(), fe.Value(), fe.Param())
	case "loglevel":
		return fmt.Sprintf("%s %q is not a known log level", fe.Field(), fe.Value())
	case "logformat":
		return fmt.Sprintf("%s %q must be console, text or json", fe.Field(), fe.Value())
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	default:
		return fmt.Sprintf("%s fails %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value())
	}
}
