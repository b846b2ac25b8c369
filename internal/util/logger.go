// BYZRA ⸻ internal/util/logger.go
// run and daemon logging

package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// severity of log entries
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarning
	LevelError
)

// leveled file logger; every line carries the run id
type Logger struct {
	log         *logrus.Logger
	logFile     *os.File
	path        string
	runID       string
	initialized bool
}

func NewLogger(logPath string, level LogLevel) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := newLogger(logFile, level)
	l.logFile = logFile
	l.path = logPath
	return l, nil
}

// logger writing to w; for tests and console-only runs
func NewWriterLogger(w io.Writer, level LogLevel) *Logger {
	return newLogger(w, level)
}

func newLogger(w io.Writer, level LogLevel) *Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(toLogrus(level))
	log.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &Logger{
		log:      log,
		runID:    uuid.NewString(),
		initialized: true,
	}
}

// identifier attached to every line of this logger
func (l *Logger) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

// writes a message to the log
func (l *Logger) Log(level LogLevel, message string) error {
	if l == nil || !l.initialized {
		return fmt.Errorf("logger not initialized")
	}

	entry := l.log.WithField("run", l.runID)
	switch level {
	case LevelDebug:
		entry.Debug(message)
	case LevelInfo:
		entry.Info(message)
	case LevelWarning:
		entry.Warn(message)
	default:
		entry.Error(message)
	}
	return nil
}

func (l *Logger) Debug(message string) error {
	return l.Log(LevelDebug, message)
}

func (l *Logger) Info(message string) error {
	return l.Log(LevelInfo, message)
}

func (l *Logger) Warning(message string) error {
	return l.Log(LevelWarning, message)
}

func (l *Logger) Error(message string) error {
	return l.Log(LevelError, message)
}

// structured variant for per-file events
func (l *Logger) WithFile(level LogLevel, path, message string) {
	if l == nil || !l.initialized {
		return
	}
	entry := l.log.WithFields(logrus.Fields{"run": l.runID, "file": path})
	entry.Log(toLogrus(level), message)
}

// close properly
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	if !l.initialized || l.logFile == nil {
		l.initialized = false
		return nil
	}

	err := l.logFile.Close()
	l.initialized = false
	l.logFile = nil
	return err
}

// new log file and archives the old one
func (l *Logger) Rotate() error {
	if l.path == "" {
		return fmt.Errorf("logger has no file to rotate")
	}

	if err := l.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	newPath := fmt.Sprintf("%s.%s", l.path, timestamp)
	if err := os.Rename(l.path, newPath); err != nil {
		return fmt.Errorf("failed to rotate log file: %w", err)
	}

	logFile, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to create new log file: %w", err)
	}

	l.logFile = logFile
	l.log.SetOutput(logFile)
	l.initialized = true

	return l.Info(fmt.Sprintf("Log rotated, previous log saved as %s", newPath))
}

// parses a level name from configuration
func ParseLogLevel(s string) (LogLevel, error) {
	switch s {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warning", "warn":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

func toLogrus(level LogLevel) logrus.Level {
	switch level {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelInfo:
		return logrus.InfoLevel
	case LevelWarning:
		return logrus.WarnLevel
	default:
		return logrus.ErrorLevel
	}
}
