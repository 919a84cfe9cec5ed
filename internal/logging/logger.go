package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Level is the minimum severity a logger emits.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format selects the log record encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config holds logger settings. Output is "stdout", "stderr", or a file path.
type Config struct {
	Level     Level  `yaml:"level" json:"level"`
	Format    Format `yaml:"format" json:"format"`
	Output    string `yaml:"output" json:"output"`
	AddSource bool   `yaml:"add_source" json:"add_source"`
}

// DefaultConfig returns info-level text logging to stdout.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Format: FormatText,
		Output: "stdout",
	}
}

// Logger wraps slog.Logger with component scoping and writer ownership.
type Logger struct {
	*slog.Logger
	config Config
	writer io.Writer
}

// NewLogger builds a Logger from config. Timestamps are rendered as RFC3339.
func NewLogger(config Config) (*Logger, error) {
	var writer io.Writer

	switch config.Output {
	case "stdout", "":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		if err := os.MkdirAll(filepath.Dir(config.Output), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writer = f
	}

	var level slog.Level
	switch config.Level {
	case LevelDebug:
		level = slog.LevelDebug
	case LevelWarn:
		level = slog.LevelWarn
	case LevelError:
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: config.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if config.Format == FormatJSON {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
		config: config,
		writer: writer,
	}, nil
}

// WithComponent returns a logger that tags every record with a component field.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.Logger.With("component", component),
		config: l.config,
		writer: l.writer,
	}
}

// WithFields returns a logger with the given structured fields attached.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{
		Logger: l.Logger.With(args...),
		config: l.config,
		writer: l.writer,
	}
}

// Close releases the underlying writer when it is a file.
func (l *Logger) Close() error {
	if l.writer == os.Stdout || l.writer == os.Stderr {
		return nil
	}
	if closer, ok := l.writer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// MetricsLogger emits metric readings as structured log records.
type MetricsLogger struct {
	logger *Logger
}

// NewMetricsLogger scopes the given logger to the "metrics" component.
func NewMetricsLogger(logger *Logger) *MetricsLogger {
	return &MetricsLogger{logger: logger.WithComponent("metrics")}
}

// LogCounter logs a monotonic counter reading.
func (ml *MetricsLogger) LogCounter(name string, value int64, labels map[string]string) {
	ml.log("counter", name, float64(value), labels)
}

// LogGauge logs a point-in-time gauge reading.
func (ml *MetricsLogger) LogGauge(name string, value float64, labels map[string]string) {
	ml.log("gauge", name, value, labels)
}

// LogTiming logs an operation duration.
func (ml *MetricsLogger) LogTiming(name string, duration time.Duration, labels map[string]string) {
	args := []interface{}{
		"metric_type", "timing",
		"metric_name", name,
		"duration_ms", duration.Milliseconds(),
	}
	for k, v := range labels {
		args = append(args, "label_"+k, v)
	}
	ml.logger.Info("timing metric", args...)
}

func (ml *MetricsLogger) log(metricType, name string, value float64, labels map[string]string) {
	args := []interface{}{
		"metric_type", metricType,
		"metric_name", name,
		"value", value,
	}
	for k, v := range labels {
		args = append(args, "label_"+k, v)
	}
	ml.logger.Info(metricType+" metric", args...)
}

var globalLogger *Logger

// SetGlobalLogger replaces the package-level logger used by the helpers below.
func SetGlobalLogger(logger *Logger) {
	globalLogger = logger
}

// GetGlobalLogger returns the package-level logger, creating a default one on
// first use.
func GetGlobalLogger() *Logger {
	if globalLogger == nil {
		logger, _ := NewLogger(DefaultConfig())
		globalLogger = logger
	}
	return globalLogger
}

// Debug logs at debug level through the global logger.
func Debug(msg string, args ...interface{}) {
	GetGlobalLogger().Debug(msg, args...)
}

// Info logs at info level through the global logger.
func Info(msg string, args ...interface{}) {
	GetGlobalLogger().Info(msg, args...)
}

// Warn logs at warn level through the global logger.
func Warn(msg string, args ...interface{}) {
	GetGlobalLogger().Warn(msg, args...)
}

// Error logs at error level through the global logger.
func Error(msg string, args ...interface{}) {
	GetGlobalLogger().Error(msg, args...)
}

// WithComponent derives a component-scoped logger from the global logger.
func WithComponent(component string) *Logger {
	return GetGlobalLogger().WithComponent(component)
}
