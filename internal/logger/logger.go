package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// EnvLevel overrides the configured level when set.
const EnvLevel = "MONARRANGE_LOG_LEVEL"

var Logger *log.Logger

var (
	mu   sync.Mutex
	file *os.File
)

func init() {
	Logger = log.New(os.Stderr)
	Logger.SetLevel(log.InfoLevel)
	if lvl := os.Getenv(EnvLevel); lvl != "" {
		SetLevel(lvl)
	}
}

// ParseLevel maps a level name to a log level. Unknown names map to info.
func ParseLevel(level string) log.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return log.DebugLevel
	case "WARN", "WARNING":
		return log.WarnLevel
	case "ERROR":
		return log.ErrorLevel
	case "FATAL":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// SetLevel sets the level by name.
func SetLevel(level string) {
	Logger.SetLevel(ParseLevel(level))
}

// Configure applies the config level unless the environment overrides it.
func Configure(level string) {
	if env := os.Getenv(EnvLevel); env != "" {
		level = env
	}
	if level != "" {
		SetLevel(level)
	}
}

// SetOutput redirects logging.
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// ToFile redirects logging to path, creating parent directories. Used while
// a full-screen UI owns the terminal. The returned func restores stderr.
func ToFile(path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	mu.Lock()
	prev := file
	file = f
	mu.Unlock()
	if prev != nil {
		prev.Close()
	}
	Logger.SetOutput(f)

	return func() {
		Logger.SetOutput(os.Stderr)
		mu.Lock()
		defer mu.Unlock()
		if file == f {
			file = nil
		}
		f.Close()
	}, nil
}

// Convenience functions for common operations
func Info(msg interface{}, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

func Debug(msg interface{}, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

func Warn(msg interface{}, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
}

func Error(msg interface{}, keyvals ...interface{}) {
	Logger.Error(msg, keyvals...)
}

func Infof(format string, args ...interface{}) {
	Logger.Infof(format, args...)
}

func Debugf(format string, args ...interface{}) {
	Logger.Debugf(format, args...)
}

func Warnf(format string, args ...interface{}) {
	Logger.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	Logger.Errorf(format, args...)
}

func Fatalf(format string, args ...interface{}) {
	Logger.Fatalf(format, args...)
}
