// Package logging builds the zerolog logger used by the CLI.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Environment overrides applied on top of Options.
const (
	EnvLevel   = "GOSERDE_LOG_LEVEL"
	EnvNoColor = "GOSERDE_LOG_NOCOLOR"
)

// Profile selects output defaults.
type Profile int

const (
	// Runtime writes colored console output with timestamps to stderr.
	Runtime Profile = iota
	// Test writes plain console output without timestamps, warnings and up.
	Test
)

type Options struct {
	App     string
	Level   string // zerolog level name; empty uses the profile default
	NoColor bool
	Out     io.Writer // defaults to os.Stderr
}

// New builds a logger for profile. GOSERDE_LOG_LEVEL and GOSERDE_LOG_NOCOLOR
// take precedence over opt.
func New(profile Profile, opt Options) (zerolog.Logger, error) {
	if v := strings.TrimSpace(os.Getenv(EnvLevel)); v != "" {
		opt.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvNoColor)); v != "" && v != "0" && !strings.EqualFold(v, "false") {
		opt.NoColor = true
	}
	if opt.Out == nil {
		opt.Out = os.Stderr
	}

	level := zerolog.InfoLevel
	if profile == Test {
		level = zerolog.WarnLevel
	}
	if opt.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(opt.Level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("log level %q: %w", opt.Level, err)
		}
		level = l
	}

	output := zerolog.ConsoleWriter{Out: opt.Out, NoColor: opt.NoColor || profile == Test, TimeFormat: time.RFC3339}
	if profile == Test {
		output.PartsExclude = []string{zerolog.TimestampFieldName}
	}
	ctx := zerolog.New(output).Level(level).With().Timestamp()
	if opt.App != "" {
		ctx = ctx.Str("app", opt.App)
	}
	return ctx.Logger(), nil
}

// Init builds a Runtime logger and installs it as the package-level logger of
// github.com/rs/zerolog/log.
func Init(opt Options) (zerolog.Logger, error) {
	logger, err := New(Runtime, opt)
	if err != nil {
		return logger, err
	}
	log.Logger = logger
	return logger, nil
}
