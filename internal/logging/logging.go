// Package logging configures the structured loggers used by the mathparser
// command.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Format is the output format for log messages.
type Format int

const (
	FormatText Format = iota // text
	FormatJSON               // json
)

// DefaultLevel is the level used when none is given or it is invalid.
const DefaultLevel = slog.LevelWarn

// DefaultFormat is the format used when none is given or it is invalid.
const DefaultFormat = FormatText

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// ParseLevel parses a level name like "debug" or "WARN+2". Invalid names give
// DefaultLevel.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return DefaultLevel
	}
	return l
}

// ParseFormat parses "text" or "json". Anything else gives DefaultFormat.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	case "text":
		return FormatText
	default:
		return DefaultFormat
	}
}

// config holds the configuration of a logger.
type config struct {
	level  slog.Level
	format Format
	time   bool
	pretty bool
}

// Option applies a configuration option to config.
type Option func(config) config

// WithLevel sets the minimum level of logged messages.
func WithLevel(l slog.Level) Option {
	return func(c config) config {
		c.level = l
		return c
	}
}

// WithFormat sets the output format.
func WithFormat(f Format) Option {
	return func(c config) config {
		c.format = f
		return c
	}
}

// WithTime sets whether messages include their time.
func WithTime(b bool) Option {
	return func(c config) config {
		c.time = b
		return c
	}
}

// WithPretty sets whether text messages color their levels. Colors are used
// only if the output is a terminal.
func WithPretty(b bool) Option {
	return func(c config) config {
		c.pretty = b
		return c
	}
}

// levelColors are the colors of level names in pretty text output.
var levelColors = map[slog.Level]lipgloss.Color{
	slog.LevelDebug: "8",
	slog.LevelInfo:  "2",
	slog.LevelWarn:  "3",
	slog.LevelError: "1",
}

// New creates a logger writing to w. By default it logs text at DefaultLevel
// with times and without color. A nil w discards everything.
func New(w io.Writer, opts ...Option) *slog.Logger {
	if w == nil {
		return slog.New(slog.DiscardHandler)
	}
	c := config{level: DefaultLevel, format: DefaultFormat, time: true}
	for _, opt := range opts {
		c = opt(c)
	}
	styles := make(map[slog.Level]lipgloss.Style, len(levelColors))
	r := lipgloss.NewRenderer(w)
	for l, col := range levelColors {
		styles[l] = r.NewStyle().Foreground(col).Bold(l >= slog.LevelError)
	}
	ho := &slog.HandlerOptions{
		Level: c.level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) != 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				if !c.time {
					return slog.Attr{}
				}
			case slog.LevelKey:
				if !c.pretty || c.format != FormatText {
					return a
				}
				l, ok := a.Value.Any().(slog.Level)
				if !ok {
					return a
				}
				if s, ok := styles[l]; ok {
					a.Value = slog.StringValue(s.Render(l.String()))
				}
			}
			return a
		},
	}
	switch c.format {
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, ho))
	default:
		return slog.New(slog.NewTextHandler(w, ho))
	}
}
