// Package logger provides leveled console logging for incflat runs.
//
// Messages are prefixed with [HH:MM:SS] timestamps and a level tag. Color is
// enabled automatically when writing to a terminal. ConsoleLogger satisfies
// include.Logger, so an expansion can report each file it enters and each
// directive it resolves.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/incflat/internal/include"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ValidLevels lists the accepted log level names, most verbose first.
var ValidLevels = []string{"trace", "debug", "info", "warn", "error"}

// ConsoleLogger logs run progress to a writer with timestamps and thread safety.
// If writer is nil, messages are silently discarded.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
	runID       string
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// logLevel determines the minimum level for messages to be output; empty or
// invalid levels default to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		mutex:       sync.Mutex{},
		colorOutput: isTerminal(writer),
	}
}

// isTerminal reports whether w is a TTY that should receive color.
// NO_COLOR disables color through fatih/color.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// normalizeLogLevel lowercases and validates a level, defaulting to "info".
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	if logLevelToInt(normalized) >= 0 {
		return normalized
	}
	return "info"
}

// IsValidLevel reports whether level names a known log level.
func IsValidLevel(level string) bool {
	return logLevelToInt(strings.ToLower(strings.TrimSpace(level))) >= 0
}

// logLevelToInt converts a level name to its numeric value, or -1.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return -1
	}
}

// shouldLog checks if a message at the given level passes the filter.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// SetRunID tags subsequent messages with a run identifier.
func (cl *ConsoleLogger) SetRunID(id string) {
	cl.mutex.Lock()
	defer cl.mutex.Unlock()
	cl.runID = id
}

// LogTrace logs a trace-level message (most verbose).
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

// logWithLevel writes one formatted line if the level passes the filter.
func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil {
		return
	}
	if !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	tag := level
	if cl.colorOutput {
		tag = colorizeLevel(level)
	}

	var formatted string
	if cl.runID != "" {
		formatted = fmt.Sprintf("[%s] [%s] [%s] %s\n", ts, tag, shortRunID(cl.runID), message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, tag, message)
	}

	cl.writer.Write([]byte(formatted))
}

// colorizeLevel returns the level tag wrapped in ANSI color codes.
func colorizeLevel(level string) string {
	switch strings.ToUpper(level) {
	case "TRACE":
		return color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		return color.New(color.FgCyan).Sprint(level)
	case "INFO":
		return color.New(color.FgBlue).Sprint(level)
	case "WARN":
		return color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		return color.New(color.FgRed).Sprint(level)
	default:
		return level
	}
}

// LogRunStart logs the beginning of an expansion at INFO level.
// Format: "Expanding <root> (search path: a, b)"
func (cl *ConsoleLogger) LogRunStart(root string, includeDirs []string) {
	searchPath := "none"
	if len(includeDirs) > 0 {
		searchPath = strings.Join(includeDirs, ", ")
	}
	cl.LogInfo(fmt.Sprintf("Expanding %s (search path: %s)", root, searchPath))
}

// LogRunComplete logs the outcome of an expansion. Failures are logged at
// ERROR level, success at INFO.
func (cl *ConsoleLogger) LogRunComplete(root string, bytes int, duration time.Duration, err error) {
	if err != nil {
		cl.LogError(fmt.Sprintf("Expansion of %s failed after %s: %v", root, formatDuration(duration), err))
		return
	}
	done := "complete"
	if cl.colorOutput {
		done = color.New(color.FgGreen).Sprint(done)
	}
	cl.LogInfo(fmt.Sprintf("Expansion of %s %s: %d bytes in %s", root, done, bytes, formatDuration(duration)))
}

// LogFileEnter implements include.Logger at DEBUG level.
func (cl *ConsoleLogger) LogFileEnter(path string, depth int) {
	cl.LogDebug(fmt.Sprintf("%senter %s", indent(depth), path))
}

// LogFileExit implements include.Logger at TRACE level.
func (cl *ConsoleLogger) LogFileExit(path string, depth int, lines int) {
	cl.LogTrace(fmt.Sprintf("%sleave %s (%d lines)", indent(depth), path, lines))
}

// LogResolved implements include.Logger at TRACE level.
func (cl *ConsoleLogger) LogResolved(ref include.ResolvedPath, from include.SourceLine) {
	cl.LogTrace(fmt.Sprintf("%s:%d: %q -> %s", from.File, from.Number, ref.Name, ref.Path))
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// timestamp returns the current time formatted as HH:MM:SS.
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration formats a duration compactly: "850ms", "1.2s", "3m5s".
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		minutes := d / time.Minute
		seconds := (d % time.Minute) / time.Second
		if seconds == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	case d >= time.Second:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
}

var _ include.Logger = (*ConsoleLogger)(nil)
