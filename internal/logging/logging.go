// Package logging provides the structured logger used across the service.
// Each component gets its own LoggerV2 tagged with a component name; all of
// them write through one shared logrus logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Fields carries structured context for a log entry.
type Fields map[string]interface{}

var base = newBase()

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetOutput redirects all loggers. Tests use it to capture output.
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}

// SetLevel sets the minimum level for all loggers. Unknown names fall back
// to info.
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)
}

// GetLevel returns the current level name.
func GetLevel() string {
	return base.GetLevel().String()
}

// LoggerV2 is a component-scoped structured logger.
type LoggerV2 struct {
	entry *logrus.Entry
}

// NewLoggerV2 creates a logger for the named component.
func NewLoggerV2(component string) *LoggerV2 {
	return &LoggerV2{
		entry: base.WithField("component", component),
	}
}

// With returns a logger that adds fields to every entry.
func (l *LoggerV2) With(fields Fields) *LoggerV2 {
	return &LoggerV2{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *LoggerV2) Debug(msg string, fields ...Fields) {
	l.withFields(fields).Debug(msg)
}

func (l *LoggerV2) Info(msg string, fields ...Fields) {
	l.withFields(fields).Info(msg)
}

func (l *LoggerV2) Warn(msg string, fields ...Fields) {
	l.withFields(fields).Warn(msg)
}

func (l *LoggerV2) Error(msg string, fields ...Fields) {
	l.withFields(fields).Error(msg)
}

// Fatal logs and exits the process.
func (l *LoggerV2) Fatal(msg string, fields ...Fields) {
	l.withFields(fields).Fatal(msg)
}

func (l *LoggerV2) withFields(fields []Fields) *logrus.Entry {
	entry := l.entry
	for _, f := range fields {
		entry = entry.WithFields(logrus.Fields(f))
	}
	return entry
}

// Info logs without a component, for call sites that predate LoggerV2.
func Info(msg string, fields ...Fields) {
	entry := logrus.NewEntry(base)
	for _, f := range fields {
		entry = entry.WithFields(logrus.Fields(f))
	}
	entry.Info(msg)
}

// Infof logs a formatted message without structured fields.
func Infof(format string, args ...interface{}) {
	base.Infof(format, args...)
}
