// Package logging builds the structured logger shared by all components.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Options configures the logger behavior.
type Options struct {
	// Level sets the minimum log level. Defaults to slog.LevelInfo.
	Level slog.Level
	// Output sets the output destination. Defaults to os.Stderr.
	Output io.Writer
	// NoColor disables ANSI colors. Colors are always disabled when
	// Output is not a terminal.
	NoColor bool
}

// New creates a logger with the given options.
func New(opts Options) *slog.Logger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	noColor := opts.NoColor
	if f, ok := opts.Output.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		noColor = true
	}
	return slog.New(tint.NewHandler(opts.Output, &tint.Options{
		Level:      opts.Level,
		NoColor:    noColor,
		TimeFormat: time.TimeOnly,
	}))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps debug, info, warn and error to a slog level.
// Unknown values fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Common attribute keys for consistent logging across the codebase.
const (
	KeyRepo   = "repo"
	KeySkill  = "skill"
	KeyPath   = "path"
	KeyBranch = "branch"
	KeyCount  = "count"
	KeyError  = "error"
)

// Repo returns a slog attribute for a repository identifier.
func Repo(r string) slog.Attr {
	return slog.String(KeyRepo, r)
}

// Skill returns a slog attribute for a skill id.
func Skill(id string) slog.Attr {
	return slog.String(KeySkill, id)
}

// Path returns a slog attribute for a repository or file path.
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Branch returns a slog attribute for a branch name.
func Branch(b string) slog.Attr {
	return slog.String(KeyBranch, b)
}

// Count returns a slog attribute for item counts.
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// Err returns a slog attribute for error logging.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any(KeyError, err)
}
