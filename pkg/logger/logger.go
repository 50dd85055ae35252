// Package logger provides leveled diagnostic logging for the synchronizer.
//
// Reconciliation failures are diagnostics, not user-facing errors: the policy
// is to log at debug level and converge on a later pass, so the logger must be
// cheap to call on hot per-member paths when debug is disabled.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level is a log severity level.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

var levelNames = map[Level]string{
	DebugLevel: "DEBUG",
	InfoLevel:  "INFO",
	WarnLevel:  "WARN",
	ErrorLevel: "ERROR",
}

var (
	mu       sync.Mutex
	std      = log.New(os.Stdout, "", log.LstdFlags)
	minLevel = InfoLevel
)

// SetLevel sets the minimum level emitted. Unknown names fall back to info.
func SetLevel(name string) {
	mu.Lock()
	defer mu.Unlock()
	switch strings.ToLower(name) {
	case "debug":
		minLevel = DebugLevel
	case "warn", "warning":
		minLevel = WarnLevel
	case "error":
		minLevel = ErrorLevel
	default:
		minLevel = InfoLevel
	}
}

// SetOutput redirects log output, primarily for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	std.SetOutput(w)
}

func logf(level Level, format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if level < minLevel {
		return
	}
	_ = std.Output(3, fmt.Sprintf("[%s] %s", levelNames[level], fmt.Sprintf(format, v...)))
}

func Debug(format string, v ...interface{}) { logf(DebugLevel, format, v...) }
func Info(format string, v ...interface{})  { logf(InfoLevel, format, v...) }
func Warn(format string, v ...interface{})  { logf(WarnLevel, format, v...) }
func Error(format string, v ...interface{}) { logf(ErrorLevel, format, v...) }
