/*
Copyright © 2025 Jayson Grace <jayson.e.grace@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/

// Package logging provides a custom logger with support for multiple output
// formats and log levels. All logging should be done through context-based
// functions (InfoContext, WarnContext, etc.) to ensure proper logger
// propagation through the application.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/fatih/color"
)

// LogLevel represents the severity level of a log message
type LogLevel int

// OutputType represents the output format for logs
type OutputType int

// Output types for different log formats
const (
	PlainOutput OutputType = iota
	ColorOutput
	JSONOutput
)

// Log levels for different types of log messages.
// Ordered from least to most severe for numeric comparison.
const (
	// DebugLevel represents debug messages (lowest severity)
	DebugLevel LogLevel = iota
	// InfoLevel represents informational messages
	InfoLevel
	// WarnLevel represents warning messages
	WarnLevel
	// ErrorLevel represents error messages (highest severity)
	ErrorLevel
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "INFO"
	}
}

// CustomLogger wraps the logging functionality with custom formatting options.
type CustomLogger struct {
	mu            sync.Mutex
	LogLevel      slog.Level
	OutputType    OutputType
	Quiet         bool
	ConsoleWriter io.Writer
	Verbose       bool
}

// formatMessage handles formatting based on output type and log level.
// For ColorOutput, it includes a colored level prefix.
// For PlainOutput, it returns the message as-is.
func (l *CustomLogger) formatMessage(level LogLevel, message string, args ...interface{}) string {
	formattedMsg := fmt.Sprintf(message, args...)

	if l.OutputType != ColorOutput {
		return formattedMsg
	}

	switch level {
	case DebugLevel:
		return color.HiBlackString("[DEBUG] %s", formattedMsg)
	case InfoLevel:
		return color.HiGreenString("[INFO] %s", formattedMsg)
	case WarnLevel:
		return color.HiYellowString("[WARN] %s", formattedMsg)
	case ErrorLevel:
		return color.HiRedString("[ERROR] %s", formattedMsg)
	default:
		return formattedMsg
	}
}

// shouldShowOnConsoleLocked determines if a message should be shown on console.
// This method must be called while holding l.mu.
// Logic:
// - In quiet mode, only errors are shown
// - In verbose mode, all messages are shown
// - Otherwise, show messages at INFO level and above (INFO, WARN, ERROR)
func (l *CustomLogger) shouldShowOnConsoleLocked(level LogLevel) bool {
	if l.Quiet {
		return level == ErrorLevel
	}

	if l.Verbose {
		return true
	}

	return level >= InfoLevel
}

func (l *CustomLogger) log(level LogLevel, message string, args ...interface{}) {
	formattedMsg := l.formatMessage(level, message, args...)

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.shouldShowOnConsoleLocked(level) || l.ConsoleWriter == nil {
		return
	}

	if _, err := fmt.Fprintf(l.ConsoleWriter, "%s\n", formattedMsg); err != nil {
		// Fallback to stderr if ConsoleWriter fails
		fmt.Fprintf(os.Stderr, "%s\n", formattedMsg)
	}
}

// NewCustomLogger creates a new instance of CustomLogger.
func NewCustomLogger(level slog.Level) *CustomLogger {
	return &CustomLogger{
		LogLevel:      level,
		Quiet:         false,
		ConsoleWriter: os.Stderr, // Default to stderr for CLI output
		Verbose:       false,
		OutputType:    PlainOutput,
	}
}

// NewCustomLoggerWithOptions creates a new CustomLogger with full configuration.
func NewCustomLoggerWithOptions(logLevelStr, outputFormat string, quiet, verbose bool) *CustomLogger {
	logLevel := DetermineLogLevel(logLevelStr)

	outputType := PlainOutput
	switch outputFormat {
	case "color":
		outputType = ColorOutput
	case "json":
		outputType = JSONOutput
	}

	// If verbose is set, ensure we're at least at debug level
	if verbose && logLevel > slog.LevelDebug {
		logLevel = slog.LevelDebug
	}

	return &CustomLogger{
		LogLevel:      logLevel,
		OutputType:    outputType,
		Quiet:         quiet,
		ConsoleWriter: os.Stderr,
		Verbose:       verbose,
	}
}

// SetQuiet enables or disables quiet mode.
// In quiet mode, only error messages are displayed.
// This method is thread-safe.
func (l *CustomLogger) SetQuiet(quiet bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Quiet = quiet
}

// SetVerbose enables or disables verbose mode.
// In verbose mode, info and debug messages are displayed on console.
// This method is thread-safe.
func (l *CustomLogger) SetVerbose(verbose bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Verbose = verbose
}

// IsVerbose returns whether the logger is in verbose mode.
// This method is thread-safe.
func (l *CustomLogger) IsVerbose() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Verbose
}

// Info logs an informational message.
func (l *CustomLogger) Info(format string, args ...interface{}) {
	l.log(InfoLevel, format, args...)
}

// Warn logs a warning message.
func (l *CustomLogger) Warn(format string, args ...interface{}) {
	l.log(WarnLevel, format, args...)
}

// Debug logs a debug message.
func (l *CustomLogger) Debug(format string, args ...interface{}) {
	l.log(DebugLevel, format, args...)
}

// Error logs an error message. It accepts either an error, a format string,
// or any other value as the first argument.
func (l *CustomLogger) Error(firstArg interface{}, args ...interface{}) {
	switch v := firstArg.(type) {
	case error:
		if len(args) == 0 {
			l.log(ErrorLevel, "%s", v.Error())
		} else {
			l.log(ErrorLevel, v.Error(), args...)
		}
	case string:
		l.log(ErrorLevel, v, args...)
	default:
		l.log(ErrorLevel, "%v", v)
	}
}

// Output sends data to stdout. Use this for results that belong on stdout
// rather than the log stream. With JSONOutput the data is encoded as
// indented JSON instead of printed with its default formatting.
func (l *CustomLogger) Output(data interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.OutputType == JSONOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(data); err != nil {
			fmt.Fprintf(os.Stderr, "failed to encode JSON output: %v\n", err)
		}
		return
	}

	if _, err := fmt.Fprintln(os.Stdout, data); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write output: %v\n", err)
	}
}

// Print writes raw output to stdout without adding a newline.
// Use this for streaming output that already contains newlines.
func (l *CustomLogger) Print(data string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := fmt.Fprint(os.Stdout, data); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write output: %v\n", err)
	}
}

// DetermineLogLevel converts a string to slog.Level
func DetermineLogLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Package-level default logger, configured once by Initialize from the root
// command and used as the fallback when no logger is present in context.

var (
	defaultMu     sync.RWMutex
	defaultLogger = NewCustomLogger(slog.LevelInfo)
)

// Initialize configures the package-level default logger.
func Initialize(logLevelStr, outputFormat string, quiet, verbose bool) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = NewCustomLoggerWithOptions(logLevelStr, outputFormat, quiet, verbose)
	return nil
}

// Default returns the package-level default logger.
func Default() *CustomLogger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// Info logs an informational message using the default logger.
func Info(format string, args ...interface{}) {
	Default().Info(format, args...)
}

// Warn logs a warning message using the default logger.
func Warn(format string, args ...interface{}) {
	Default().Warn(format, args...)
}

// Debug logs a debug message using the default logger.
func Debug(format string, args ...interface{}) {
	Default().Debug(format, args...)
}

// Error logs an error message using the default logger.
func Error(firstArg interface{}, args ...interface{}) {
	Default().Error(firstArg, args...)
}

// Context-based logging support

// loggerKeyType is the type for the logger context key
type loggerKeyType struct{}

// loggerKey is the context key for storing the logger
var loggerKey = loggerKeyType{}

// WithLogger returns a new context with the provided logger.
func WithLogger(ctx context.Context, l *CustomLogger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext retrieves the logger from the context.
// If no logger is found in context, the package default is returned.
func FromContext(ctx context.Context) *CustomLogger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*CustomLogger); ok && l != nil {
			return l
		}
	}
	return Default()
}

// InfoContext logs an informational message using the logger from context.
func InfoContext(ctx context.Context, message string, args ...interface{}) {
	FromContext(ctx).Info(message, args...)
}

// WarnContext logs a warning message using the logger from context.
func WarnContext(ctx context.Context, message string, args ...interface{}) {
	FromContext(ctx).Warn(message, args...)
}

// DebugContext logs a debug message using the logger from context.
func DebugContext(ctx context.Context, message string, args ...interface{}) {
	FromContext(ctx).Debug(message, args...)
}

// ErrorContext logs an error message using the logger from context. It accepts
// either an error, a format string, or any other value as the first argument.
func ErrorContext(ctx context.Context, firstArg interface{}, args ...interface{}) {
	FromContext(ctx).Error(firstArg, args...)
}

// OutputContext sends data to stdout using the logger from context.
func OutputContext(ctx context.Context, data interface{}) {
	FromContext(ctx).Output(data)
}

// PrintContext writes raw output to stdout using the logger from context.
// Use this for streaming output that already contains newlines.
func PrintContext(ctx context.Context, data string) {
	FromContext(ctx).Print(data)
}
