package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// serviceName tags every entry so API and CLI log streams stay
// attributable when they land in the same sink.
const serviceName = "entropy-forensics"

// Logger is the shared service/CLI logger. The analyzer core does not
// log; anything below the orchestrator reports through return values.
var Logger *logrus.Logger

func init() {
	Logger = logrus.New()
	Logger.SetOutput(os.Stdout)
	Logger.SetLevel(ParseLevel(os.Getenv("FORENSICS_LOG_LEVEL")))
	Logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
}

// ParseLevel maps a FORENSICS_LOG_LEVEL value onto a logrus level.
// Empty or unrecognized values fall back to info.
func ParseLevel(raw string) logrus.Level {
	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func base() *logrus.Entry {
	return Logger.WithField("service", serviceName)
}

// WithFields creates a service-tagged entry with the given fields
func WithFields(fields logrus.Fields) *logrus.Entry {
	return base().WithFields(fields)
}

// WithField creates a service-tagged entry with a single field
func WithField(key string, value interface{}) *logrus.Entry {
	return base().WithField(key, value)
}

// WithError creates a service-tagged entry with an error field
func WithError(err error) *logrus.Entry {
	return base().WithError(err)
}

// Info logs an info message
func Info(msg string) {
	base().Info(msg)
}

// Error logs an error message
func Error(msg string) {
	base().Error(msg)
}

// Debug logs a debug message
func Debug(msg string) {
	base().Debug(msg)
}

// Warn logs a warning message
func Warn(msg string) {
	base().Warn(msg)
}
