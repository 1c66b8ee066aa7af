// Package logging provides the shared structured logger for the engine.
package logging

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Logger is the process-wide logger. Components log through this instance
// so level configuration applies everywhere.
var Logger = log.New(os.Stderr)

func init() {
	Logger.SetLevel(log.WarnLevel)
	Logger.SetReportTimestamp(false)
}

// Configure sets the log level. A flag value takes precedence over
// LABENGINE_LOG_LEVEL; the default is warn so JSON output stays clean.
func Configure(level string) {
	if level == "" {
		level = strings.ToLower(os.Getenv("LABENGINE_LOG_LEVEL"))
	}
	switch level {
	case "debug":
		Logger.SetLevel(log.DebugLevel)
	case "info":
		Logger.SetLevel(log.InfoLevel)
	case "warn":
		Logger.SetLevel(log.WarnLevel)
	case "error":
		Logger.SetLevel(log.ErrorLevel)
	}
}

// Debug logs at debug level.
func Debug(msg string, kv ...any) { Logger.Debug(msg, kv...) }

// Info logs at info level.
func Info(msg string, kv ...any) { Logger.Info(msg, kv...) }

// Warn logs at warn level.
func Warn(msg string, kv ...any) { Logger.Warn(msg, kv...) }

// Error logs at error level.
func Error(msg string, kv ...any) { Logger.Error(msg, kv...) }
