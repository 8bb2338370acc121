// internal/logging/logger.go
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// LogLevel represents logging levels
type LogLevel string

const (
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
)

// Config holds logging configuration
type Config struct {
	Level         LogLevel `json:"level"`
	Directory     string   `json:"directory"`
	AppLogFile    string   `json:"app_log_file"`
	EnableConsole bool     `json:"enable_console"`
}

// DefaultConfig returns default logging configuration
func DefaultConfig() *Config {
	return &Config{
		Level:         LevelInfo,
		Directory:     "logs",
		AppLogFile:    "app.log",
		EnableConsole: true,
	}
}

// Logger wraps the process-wide application logger.
type Logger struct {
	config    *Config
	appLogger *slog.Logger
	appFile   *os.File
}

var (
	globalLogger *Logger
	once         sync.Once
)

// Initialize sets up the global logger
func Initialize(config *Config) error {
	var err error
	once.Do(func() {
		globalLogger, err = newLogger(config)
	})
	return err
}

// GetLogger returns the global logger instance
func GetLogger() *Logger {
	if globalLogger == nil {
		// Fallback to default config if not initialized
		_ = Initialize(DefaultConfig())
	}
	return globalLogger
}

// newLogger creates a new logger instance
func newLogger(config *Config) (*Logger, error) {
	if err := os.MkdirAll(config.Directory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logger := &Logger{config: config}

	appPath := filepath.Join(config.Directory, config.AppLogFile)
	appFile, err := os.OpenFile(appPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open app log file: %w", err)
	}
	logger.appFile = appFile

	writers := []io.Writer{appFile}
	if config.EnableConsole {
		writers = append(writers, os.Stdout)
	}

	opts := &slog.HandlerOptions{
		Level: logger.getSlogLevel(),
	}
	logger.appLogger = slog.New(slog.NewJSONHandler(io.MultiWriter(writers...), opts))

	return logger, nil
}

// getSlogLevel converts our LogLevel to slog.Level
func (l *Logger) getSlogLevel() slog.Level {
	switch l.config.Level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Info logs an informational message
func (l *Logger) Info(component, message string, fields ...interface{}) {
	l.appLogger.Info(message, append([]interface{}{"component", component}, fields...)...)
}

// Warn logs a warning message
func (l *Logger) Warn(component, message string, fields ...interface{}) {
	l.appLogger.Warn(message, append([]interface{}{"component", component}, fields...)...)
}

// Error logs an error message
func (l *Logger) Error(component, message string, err error, fields ...interface{}) {
	allFields := append([]interface{}{"component", component}, fields...)
	if err != nil {
		allFields = append(allFields, "error", err.Error())
	}
	l.appLogger.Error(message, allFields...)
}

// Debug logs a debug message
func (l *Logger) Debug(component, message string, fields ...interface{}) {
	l.appLogger.Debug(message, append([]interface{}{"component", component}, fields...)...)
}

// Close closes the log file
func (l *Logger) Close() error {
	if l.appFile != nil {
		return l.appFile.Close()
	}
	return nil
}

// Global convenience functions

// Info logs an informational message using the global logger
func Info(component, message string, fields ...interface{}) {
	GetLogger().Info(component, message, fields...)
}

// Warn logs a warning message using the global logger
func Warn(component, message string, fields ...interface{}) {
	GetLogger().Warn(component, message, fields...)
}

// Error logs an error message using the global logger
func Error(component, message string, err error, fields ...interface{}) {
	GetLogger().Error(component, message, err, fields...)
}

// Debug logs a debug message using the global logger
func Debug(component, message string, fields ...interface{}) {
	GetLogger().Debug(component, message, fields...)
}
