package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T, level string, fn func()) string {
	t.Helper()
	buf := &bytes.Buffer{}
	SetTestOutput(buf)
	defer UnsetTestOutput()

	// Reinitialize logger with test output
	logger = nil
	InitLogger(level)

	fn()

	return buf.String()
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		logFn    func()
		contains []string
		excludes []string
	}{
		{
			name:  "info log",
			level: "info",
			logFn: func() {
				Info("test info message")
			},
			contains: []string{"test info message"},
		},
		{
			name:  "debug log with debug level",
			level: "debug",
			logFn: func() {
				Debug("test debug message")
			},
			contains: []string{"test debug message", "level=DEBUG"},
		},
		{
			name:  "debug log with info level",
			level: "info",
			logFn: func() {
				Debug("test debug message")
			},
			excludes: []string{"test debug message"},
		},
		{
			name:  "error log",
			level: "error",
			logFn: func() {
				Error("test error message")
			},
			contains: []string{"test error message", "level=ERROR"},
		},
		{
			name:  "warn log with fields",
			level: "warn",
			logFn: func() {
				Warn("test warning", Fields{"package": "requests", "attempt": 2})
			},
			contains: []string{"test warning", "level=WARN", "package=requests", "attempt=2"},
		},
		{
			name:  "success log",
			level: "info",
			logFn: func() {
				Success("operation completed")
			},
			contains: []string{"operation completed", "status=success"},
		},
		{
			name:  "formatted info log",
			level: "info",
			logFn: func() {
				Infof("formatted %s", "message")
			},
			contains: []string{"formatted message"},
		},
		{
			name:  "formatted warn log",
			level: "info",
			logFn: func() {
				Warnf("failed to fetch %s", "urllib3")
			},
			contains: []string{"failed to fetch urllib3", "level=WARN"},
		},
		{
			name:  "unknown level falls back to info",
			level: "bogus",
			logFn: func() {
				Info("still logged")
			},
			contains: []string{"still logged"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := captureOutput(t, tt.level, tt.logFn)
			for _, want := range tt.contains {
				assert.Contains(t, output, want)
			}
			for _, notWant := range tt.excludes {
				assert.NotContains(t, output, notWant)
			}
		})
	}
}

func TestGetLoggerInitializesDefault(t *testing.T) {
	logger = nil
	assert.NotNil(t, GetLogger())
}
