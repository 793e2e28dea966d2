// Package logger is sercha-rag's leveled stderr log. Errors always print;
// everything below needs --verbose. Pipeline stages log their timings at
// debug level, so a verbose run shows where a query spent its time.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level orders messages by severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

var (
	mu         sync.Mutex
	threshold  = LevelError
	timestamps bool
	output     io.Writer = os.Stderr
)

// SetVerbose lowers the threshold to debug, or raises it back to error.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	threshold = LevelError
	if v {
		threshold = LevelDebug
	}
}

func IsVerbose() bool {
	return Enabled(LevelDebug)
}

// Enabled reports whether messages at l are printed.
func Enabled(l Level) bool {
	mu.Lock()
	defer mu.Unlock()
	return l >= threshold
}

// SetTimestamps prefixes each line with an RFC 3339 time. The server
// turns it on.
func SetTimestamps(v bool) {
	mu.Lock()
	defer mu.Unlock()
	timestamps = v
}

// SetOutput redirects the log; tests pass a buffer.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func Output() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return output
}

// Logf prints at l when l passes the threshold.
func Logf(l Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if l < threshold {
		return
	}
	prefix := "[" + l.String() + "] "
	if timestamps {
		prefix = time.Now().Format(time.RFC3339) + " " + prefix
	}
	fmt.Fprintf(output, prefix+format+"\n", args...)
}

func Debug(format string, args ...any) { Logf(LevelDebug, format, args...) }
func Info(format string, args ...any)  { Logf(LevelInfo, format, args...) }
func Warn(format string, args ...any)  { Logf(LevelWarn, format, args...) }
func Error(format string, args ...any) { Logf(LevelError, format, args...) }

// Section prints a header between the lines of one operation in verbose mode.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if threshold <= LevelDebug {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}
