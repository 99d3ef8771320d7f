package flagtypes

import (
	"errors"
	"strings"

	"github.com/iver-wharf/wharf-core/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var _ pflag.Value = new(LogLevel)

// LogLevel is a pflag.Value for the --loglevel flag.
type LogLevel logger.Level

// Level returns the wrapped logging level.
func (l LogLevel) Level() logger.Level {
	return logger.Level(l)
}

// String implements the pflag.Value and fmt.Stringer interfaces.
func (l *LogLevel) String() string {
	switch l.Level() {
	case logger.LevelDebug:
		return "debug"
	case logger.LevelInfo:
		return "info"
	case logger.LevelWarn:
		return "warn"
	case logger.LevelError:
		return "error"
	case logger.LevelPanic:
		return "panic"
	default:
		return l.Level().String()
	}
}

// Set implements the pflag.Value interface.
func (l *LogLevel) Set(val string) error {
	lvl, err := ParseLogLevel(val)
	if err != nil {
		return err
	}
	*l = LogLevel(lvl)
	return nil
}

// Type implements the pflag.Value interface. Only used in help text.
func (l *LogLevel) Type() string {
	return "loglevel"
}

// ParseLogLevel parses a logging level by name, abbreviation or number.
func ParseLogLevel(lvl string) (logger.Level, error) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "5", "d", "debug":
		return logger.LevelDebug, nil
	case "4", "i", "info":
		return logger.LevelInfo, nil
	case "3", "w", "warn", "warning":
		return logger.LevelWarn, nil
	case "2", "e", "error":
		return logger.LevelError, nil
	case "1", "p", "panic":
		return logger.LevelPanic, nil
	default:
		return logger.LevelInfo, errors.New(`invalid logging level, must be one of:
	5  d  debug
	4  i  info
	3  w  warn   warning
	2  e  error
	1  p  panic`)
	}
}

// CompleteLogLevel returns shell completions for the --loglevel flag.
func CompleteLogLevel(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"debug\tIncludes all logs",
		"info\tIncludes INFO, WARN, ERROR, and PANIC logs (default)",
		"warn\tIncludes WARN, ERROR, and PANIC logs",
		"error\tIncludes ERROR, and PANIC logs",
		"panic\tSilent, except for PANIC logs",
	}, cobra.ShellCompDirectiveNoFileComp
}
