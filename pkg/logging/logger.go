// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging for gallery components.
//
// The logger is a thin layer over log/slog with three destinations:
//
//   - stderr (default, text or JSON)
//   - an optional daily JSON log file under Config.LogDir
//   - an optional LogExporter that receives every entry
//
// # Basic Usage
//
//	logger := logging.Default()
//	logger.Info("group loaded", "group_id", id, "items", n)
//
// # File Logging
//
//	logger := logging.New(logging.Config{
//	    Level:   logging.LevelDebug,
//	    LogDir:  "~/.gallery/logs",
//	    Service: "gallery",
//	})
//	defer logger.Close()
//
// # Thread Safety
//
// Logger is safe for concurrent use.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// Log Levels
// =============================================================================

// Level represents log severity, ordered Debug < Info < Warn < Error.
type Level int

const (
	// LevelDebug is for development troubleshooting, e.g. every window patch.
	LevelDebug Level = iota

	// LevelInfo is for normal operational messages, e.g. "group loaded".
	LevelInfo

	// LevelWarn is for recoverable issues, e.g. a seed file that failed to parse on reload.
	LevelWarn

	// LevelError is for failed operations.
	LevelError
)

// String returns "DEBUG", "INFO", "WARN", "ERROR", or "UNKNOWN".
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a case-insensitive level name into a Level.
//
// Description:
//
//	Accepts "debug", "info", "warn"/"warning" and "error". The empty
//	string maps to LevelInfo so that an unset config field is valid.
//
// Inputs:
//
//	s - The level name.
//
// Outputs:
//
//	Level - The parsed level (LevelInfo on error).
//	error - Non-nil if the name is not recognised.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// =============================================================================
// Configuration
// =============================================================================

// Config configures the Logger. The zero value logs Info+ text to stderr.
type Config struct {
	// Level sets the minimum log level. Default: LevelInfo.
	Level Level

	// LogDir enables JSON file logging to "{Service}_{YYYY-MM-DD}.log"
	// in this directory. Supports a leading ~. Default: disabled.
	LogDir string

	// Service is attached to every entry as the "service" attribute.
	Service string

	// JSON switches stderr output to JSON. File output is always JSON.
	JSON bool

	// Quiet disables stderr output.
	Quiet bool

	// Exporter optionally receives every entry at or above Level.
	Exporter LogExporter
}

// LogExporter receives log entries for delivery to an external system.
//
// Export is called synchronously from the logging goroutine, so
// implementations must not block. Flush and Close are called from
// Logger.Close.
type LogExporter interface {
	Export(ctx context.Context, entry LogEntry) error
	Flush(ctx context.Context) error
	Close() error
}

// LogEntry is the structured form of one log call handed to a LogExporter.
type LogEntry struct {
	Timestamp time.Time
	Level     Level
	Message   string
	Service   string
	Attrs     map[string]any
}

// =============================================================================
// Logger
// =============================================================================

// Logger provides structured logging with multi-destination output.
//
// # Thread Safety
//
// Safe for concurrent use. Child loggers created with With share the
// parent's file handle and exporter; only the root should be closed.
type Logger struct {
	slog     *slog.Logger
	config   Config
	file     *os.File
	exporter LogExporter
	mu       sync.Mutex
}

// New creates a Logger from config.
//
// Description:
//
//	Builds a stderr handler (unless Quiet), a JSON file handler (if
//	LogDir is set and writable) and fans records out to both. A file
//	that cannot be opened is skipped rather than failing construction,
//	so a misconfigured log directory never prevents startup.
//
// Inputs:
//
//	config - Logger configuration.
//
// Outputs:
//
//	*Logger - Ready to use. Call Close when done.
func New(config Config) *Logger {
	var handlers []slog.Handler
	opts := &slog.HandlerOptions{Level: config.Level.toSlogLevel()}

	if !config.Quiet {
		if config.JSON {
			handlers = append(handlers, slog.NewJSONHandler(os.Stderr, opts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(os.Stderr, opts))
		}
	}

	logger := &Logger{
		config:   config,
		exporter: config.Exporter,
	}

	if config.LogDir != "" {
		if file, err := openLogFile(config); err == nil {
			logger.file = file
			handlers = append(handlers, slog.NewJSONHandler(file, opts))
		}
	}

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		handler = discardHandler{}
	case 1:
		handler = handlers[0]
	default:
		handler = &multiHandler{handlers: handlers}
	}

	if config.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", config.Service)})
	}

	logger.slog = slog.New(handler)
	return logger
}

// Default returns an Info-level stderr text logger for the "gallery" service.
func Default() *Logger {
	return New(Config{
		Level:   LevelInfo,
		Service: "gallery",
	})
}

// Discard returns a logger that drops everything. Used by tests and as a
// fallback when callers pass a nil logger.
func Discard() *Logger {
	return New(Config{Quiet: true})
}

// Debug logs at Debug level with slog-style key/value args.
func (l *Logger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args...) }

// Info logs at Info level.
func (l *Logger) Info(msg string, args ...any) { l.log(LevelInfo, msg, args...) }

// Warn logs at Warn level.
func (l *Logger) Warn(msg string, args ...any) { l.log(LevelWarn, msg, args...) }

// Error logs at Error level.
func (l *Logger) Error(msg string, args ...any) { l.log(LevelError, msg, args...) }

// With returns a child logger that adds args to every entry.
//
// Example:
//
//	groupLogger := logger.With("group_id", g.ID)
//	groupLogger.Debug("window patched", "event", ev.Kind())
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:     l.slog.With(args...),
		config:   l.config,
		file:     l.file,
		exporter: l.exporter,
	}
}

// Slog returns the underlying slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Close flushes and closes the exporter and the log file.
//
// Outputs:
//
//	error - The first cleanup error, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error

	if l.exporter != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.exporter.Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush exporter: %w", err))
		}
		if err := l.exporter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close exporter: %w", err))
		}
		l.exporter = nil
	}

	if l.file != nil {
		if err := l.file.Sync(); err != nil {
			errs = append(errs, fmt.Errorf("sync log file: %w", err))
		}
		if err := l.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close log file: %w", err))
		}
		l.file = nil
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func (l *Logger) log(level Level, msg string, args ...any) {
	switch level {
	case LevelDebug:
		l.slog.Debug(msg, args...)
	case LevelInfo:
		l.slog.Info(msg, args...)
	case LevelWarn:
		l.slog.Warn(msg, args...)
	case LevelError:
		l.slog.Error(msg, args...)
	}

	if l.exporter != nil && level >= l.config.Level {
		entry := LogEntry{
			Timestamp: time.Now(),
			Level:     level,
			Message:   msg,
			Service:   l.config.Service,
			Attrs:     argsToMap(args),
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		_ = l.exporter.Export(ctx, entry)
		cancel()
	}
}

// =============================================================================
// Handlers (Internal)
// =============================================================================

// multiHandler fans out log records to multiple slog handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// discardHandler drops every record.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// =============================================================================
// Helper Functions
// =============================================================================

func openLogFile(config Config) (*os.File, error) {
	logDir := expandPath(config.LogDir)
	if err := os.MkdirAll(logDir, 0750); err != nil {
		return nil, err
	}
	serviceName := config.Service
	if serviceName == "" {
		serviceName = "gallery"
	}
	filename := fmt.Sprintf("%s_%s.log", serviceName, time.Now().Format("2006-01-02"))
	return os.OpenFile(filepath.Join(logDir, filename), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// argsToMap converts slog-style key/value args to a map. slog.Attr values
// are expanded; a dangling key without a value is dropped.
func argsToMap(args []any) map[string]any {
	result := make(map[string]any)
	for i := 0; i < len(args); i++ {
		switch v := args[i].(type) {
		case slog.Attr:
			result[v.Key] = v.Value.Any()
		case string:
			if i+1 < len(args) {
				result[v] = args[i+1]
				i++
			}
		}
	}
	return result
}

// =============================================================================
// Built-in Exporters
// =============================================================================

// BufferedExporter collects log entries in memory for tests:
//
//	exporter := logging.NewBufferedExporter()
//	logger := logging.New(logging.Config{Quiet: true, Exporter: exporter})
//	logger.Warn("seed reload failed", "error", err)
//	entries := exporter.Entries()
type BufferedExporter struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewBufferedExporter creates an empty BufferedExporter.
func NewBufferedExporter() *BufferedExporter {
	return &BufferedExporter{entries: make([]LogEntry, 0, 64)}
}

// Export appends the entry.
func (e *BufferedExporter) Export(_ context.Context, entry LogEntry) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = append(e.entries, entry)
	return nil
}

// Flush is a no-op.
func (e *BufferedExporter) Flush(context.Context) error { return nil }

// Close is a no-op.
func (e *BufferedExporter) Close() error { return nil }

// Entries returns a copy of the collected entries.
func (e *BufferedExporter) Entries() []LogEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	result := make([]LogEntry, len(e.entries))
	copy(result, e.entries)
	return result
}

// Messages returns the message of every collected entry at or above level.
func (e *BufferedExporter) Messages(level Level) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var msgs []string
	for _, entry := range e.entries {
		if entry.Level >= level {
			msgs = append(msgs, entry.Message)
		}
	}
	return msgs
}

var _ LogExporter = (*BufferedExporter)(nil)
