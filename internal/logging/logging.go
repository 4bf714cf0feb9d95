// Package logging configures the run logger: human-readable lines on stderr
// plus a persistent, rotated log file.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DefaultFile is the persistent log file name
const DefaultFile = "wow_ui_migration.log"

// Formatter selects the line format
type Formatter string

const (
	TextFormatter Formatter = "text"
	JSONFormatter Formatter = "json"
)

// Option configures New
type Option struct {
	Level       string
	Formatter   Formatter
	LogFilePath string
	MaxSize     int
	MaxBackups  int
	MaxAge      int
	Compress    bool
	// Console receives log lines; nil means stderr
	Console io.Writer
}

// New builds a logrus logger. When LogFilePath is set every entry is also
// appended to that file through a lumberjack hook.
func New(option Option) (*logrus.Logger, error) {
	instance := logrus.New()

	level := logrus.InfoLevel
	if option.Level != "" {
		parsed, err := logrus.ParseLevel(strings.ToLower(option.Level))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid log level %q", option.Level)
		}
		level = parsed
	}
	instance.SetLevel(level)

	instance.SetFormatter(formatter(option.Formatter))
	instance.SetOutput(os.Stderr)
	if option.Console != nil {
		instance.SetOutput(option.Console)
	}

	if option.LogFilePath != "" {
		lbj := &lumberjack.Logger{
			Filename:   option.LogFilePath,
			MaxSize:    option.MaxSize,
			MaxAge:     option.MaxAge,
			MaxBackups: option.MaxBackups,
			LocalTime:  true,
			Compress:   option.Compress,
		}

		instance.AddHook(&lumberjackHook{
			lbj:       lbj,
			formatter: &logrus.TextFormatter{DisableColors: true, FullTimestamp: true},
		})
	}

	return instance, nil
}

// Discard returns a logger that drops everything
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Close flushes and closes the log file hook, if any
func Close(l *logrus.Logger) error {
	for _, hooks := range l.Hooks {
		for _, h := range hooks {
			if lh, ok := h.(*lumberjackHook); ok {
				// one hook is registered for every level
				return errors.WithStack(lh.lbj.Close())
			}
		}
	}
	return nil
}

func formatter(f Formatter) logrus.Formatter {
	if Formatter(strings.ToLower(string(f))) == JSONFormatter {
		return &logrus.JSONFormatter{}
	}
	return &logrus.TextFormatter{}
}

type lumberjackHook struct {
	lbj       *lumberjack.Logger
	formatter logrus.Formatter
}

func (l *lumberjackHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (l *lumberjackHook) Fire(entry *logrus.Entry) error {
	b, err := l.formatter.Format(entry)
	if err != nil {
		return errors.WithStack(err)
	}

	if _, err := l.lbj.Write(b); err != nil {
		return errors.WithStack(err)
	}

	return nil
}
