package logger

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/harrison/incflat/internal/include"
)

// TestNewConsoleLogger verifies the constructor creates a ConsoleLogger with the provided writer.
func TestNewConsoleLogger(t *testing.T) {
	t.Run("with valid writer", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewConsoleLogger(buf, "info")

		if logger == nil {
			t.Fatal("expected non-nil logger")
		}
		if logger.writer != buf {
			t.Error("writer not set correctly")
		}
		if logger.logLevel != "info" {
			t.Errorf("expected log level %q, got %q", "info", logger.logLevel)
		}
		if logger.colorOutput {
			t.Error("color should be disabled for a non-terminal writer")
		}
	})

	t.Run("with nil writer", func(t *testing.T) {
		logger := NewConsoleLogger(nil, "info")
		if logger == nil {
			t.Fatal("expected non-nil logger even with nil writer")
		}
		// Must not panic.
		logger.LogInfo("dropped")
		logger.LogFileEnter("a.cpp", 0)
	})
}

func TestNormalizeLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "debug"},
		{"  WARN ", "warn"},
		{"Trace", "trace"},
		{"", "info"},
		{"verbose", "info"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := normalizeLogLevel(tt.in); got != tt.want {
				t.Errorf("normalizeLogLevel(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsValidLevel(t *testing.T) {
	for _, level := range ValidLevels {
		if !IsValidLevel(level) {
			t.Errorf("IsValidLevel(%q) = false, want true", level)
		}
	}
	if IsValidLevel("loud") {
		t.Error("IsValidLevel(\"loud\") = true, want false")
	}
}

// TestLevelFiltering verifies messages below the configured level are dropped.
func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level    string
		expected []string
		dropped  []string
	}{
		{
			level:    "trace",
			expected: []string{"[TRACE] t", "[DEBUG] d", "[INFO] i", "[WARN] w", "[ERROR] e"},
		},
		{
			level:    "info",
			expected: []string{"[INFO] i", "[WARN] w", "[ERROR] e"},
			dropped:  []string{"[TRACE]", "[DEBUG]"},
		},
		{
			level:    "error",
			expected: []string{"[ERROR] e"},
			dropped:  []string{"[TRACE]", "[DEBUG]", "[INFO]", "[WARN]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewConsoleLogger(buf, tt.level)

			logger.LogTrace("t")
			logger.LogDebug("d")
			logger.LogInfo("i")
			logger.LogWarn("w")
			logger.LogError("e")

			out := buf.String()
			for _, want := range tt.expected {
				if !strings.Contains(out, want) {
					t.Errorf("expected %q in output:\n%s", want, out)
				}
			}
			for _, unwanted := range tt.dropped {
				if strings.Contains(out, unwanted) {
					t.Errorf("unexpected %q in output:\n%s", unwanted, out)
				}
			}
		})
	}
}

func TestTimestampPrefix(t *testing.T) {
	buf := &bytes.Buffer{}
	NewConsoleLogger(buf, "info").LogInfo("hello")

	line := buf.String()
	if len(line) < 10 || line[0] != '[' || line[9] != ']' {
		t.Fatalf("expected [HH:MM:SS] prefix, got %q", line)
	}
	if _, err := time.Parse("15:04:05", line[1:9]); err != nil {
		t.Errorf("timestamp %q does not parse: %v", line[1:9], err)
	}
}

func TestRunIDTag(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")
	logger.SetRunID("0f8fad5b-d9cb-469f-a165-70867728950e")
	logger.LogInfo("tagged")

	if !strings.Contains(buf.String(), "[INFO] [0f8fad5b] tagged") {
		t.Errorf("expected short run id tag, got %q", buf.String())
	}
}

func TestExpansionEvents(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "trace")

	logger.LogFileEnter("sources/dir1/b.h", 1)
	logger.LogResolved(
		include.Found("subdir/c.h", "sources/dir1/subdir/c.h"),
		include.SourceLine{File: "sources/dir1/b.h", Number: 2},
	)
	logger.LogFileExit("sources/dir1/b.h", 1, 3)

	out := buf.String()
	for _, want := range []string{
		"[DEBUG]   enter sources/dir1/b.h",
		`sources/dir1/b.h:2: "subdir/c.h" -> sources/dir1/subdir/c.h`,
		"leave sources/dir1/b.h (3 lines)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestLogRunComplete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		buf := &bytes.Buffer{}
		NewConsoleLogger(buf, "info").LogRunComplete("a.cpp", 42, 1500*time.Millisecond, nil)
		if !strings.Contains(buf.String(), "[INFO] Expansion of a.cpp complete: 42 bytes in 1.5s") {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("failure", func(t *testing.T) {
		buf := &bytes.Buffer{}
		NewConsoleLogger(buf, "info").LogRunComplete("a.cpp", 0, 20*time.Millisecond, errors.New("boom"))
		if !strings.Contains(buf.String(), "[ERROR] Expansion of a.cpp failed after 20ms: boom") {
			t.Errorf("unexpected output %q", buf.String())
		}
	})
}

func TestLogRunStart(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")
	logger.LogRunStart("a.cpp", []string{"include1", "include2"})
	logger.LogRunStart("b.cpp", nil)

	out := buf.String()
	if !strings.Contains(out, "Expanding a.cpp (search path: include1, include2)") {
		t.Errorf("missing search path in %q", out)
	}
	if !strings.Contains(out, "Expanding b.cpp (search path: none)") {
		t.Errorf("missing empty search path in %q", out)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{850 * time.Millisecond, "850ms"},
		{1200 * time.Millisecond, "1.2s"},
		{2 * time.Minute, "2m"},
		{3*time.Minute + 5*time.Second, "3m5s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestIsTerminalNonFile(t *testing.T) {
	if isTerminal(&bytes.Buffer{}) {
		t.Error("bytes.Buffer should never be treated as a terminal")
	}
	if isTerminal(nil) {
		t.Error("nil writer should never be treated as a terminal")
	}
	f, err := os.CreateTemp(t.TempDir(), "log")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if isTerminal(f) {
		t.Error("regular file should not be treated as a terminal")
	}
}
