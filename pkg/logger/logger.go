package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger wraps zerolog.Logger with component and field helpers
type Logger struct {
	logger zerolog.Logger
}

// Config represents logger configuration
type Config struct {
	Level     string `yaml:"level" mapstructure:"level"`         // debug, info, warn, error
	Format    string `yaml:"format" mapstructure:"format"`       // json, console
	Output    string `yaml:"output" mapstructure:"output"`       // stdout, stderr, file path
	Timestamp bool   `yaml:"timestamp" mapstructure:"timestamp"` // include timestamp
	Caller    bool   `yaml:"caller" mapstructure:"caller"`       // include caller info
	NoColor   bool   `yaml:"no_color" mapstructure:"no_color"`   // force plain console output
}

// DefaultConfig returns default logger configuration
func DefaultConfig() *Config {
	return &Config{
		Level:     "info",
		Format:    "console",
		Output:    "stderr",
		Timestamp: true,
	}
}

var (
	mu           sync.RWMutex
	globalLogger *Logger
	closer       io.Closer
)

// Initialize sets up the global logger with the provided configuration
func Initialize(config *Config) error {
	if config == nil {
		config = DefaultConfig()
	}

	level, err := zerolog.ParseLevel(strings.ToLower(config.Level))
	if err != nil || config.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output, file, err := openOutput(config.Output)
	if err != nil {
		return err
	}

	l := &Logger{logger: build(config, output)}

	mu.Lock()
	if closer != nil {
		_ = closer.Close()
	}
	closer = file
	globalLogger = l
	log.Logger = l.logger
	mu.Unlock()

	return nil
}

// New creates a standalone logger writing to w. Used by tests and embedders
// that do not want to touch the global logger.
func New(config *Config, w io.Writer) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	return &Logger{logger: build(config, w)}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

func openOutput(output string) (io.Writer, *os.File, error) {
	switch strings.ToLower(output) {
	case "stderr", "":
		return os.Stderr, nil, nil
	case "stdout":
		return os.Stdout, nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return file, file, nil
}

func build(config *Config, output io.Writer) zerolog.Logger {
	var logger zerolog.Logger

	if strings.EqualFold(config.Format, "json") {
		logger = zerolog.New(output)
	} else {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
			NoColor:    config.NoColor || !IsTerminal(output),
		}
		consoleWriter.FormatLevel = formatLevel
		logger = zerolog.New(consoleWriter)
	}

	if level, err := zerolog.ParseLevel(strings.ToLower(config.Level)); err == nil && config.Level != "" {
		logger = logger.Level(level)
	}
	if config.Timestamp {
		logger = logger.With().Timestamp().Logger()
	}
	if config.Caller {
		logger = logger.With().Caller().Logger()
	}
	return logger
}

func formatLevel(i interface{}) string {
	ll, ok := i.(string)
	if !ok {
		return "???"
	}
	switch ll {
	case "debug":
		return "DBG"
	case "info":
		return "INF"
	case "warn":
		return "WRN"
	case "error":
		return "ERR"
	case "fatal":
		return "FTL"
	default:
		return strings.ToUpper(ll)
	}
}

// IsTerminal reports whether w is a terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Get returns the global logger instance, initializing it with defaults on first use
func Get() *Logger {
	mu.RLock()
	l := globalLogger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if globalLogger == nil {
		globalLogger = &Logger{logger: build(DefaultConfig(), os.Stderr)}
	}
	return globalLogger
}

// WithField adds a field to the logger
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

// WithFields adds multiple fields to the logger
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	logger := l.logger.With()
	for k, v := range fields {
		logger = logger.Interface(k, v)
	}
	return &Logger{logger: logger.Logger()}
}

// WithComponent adds a component field to the logger
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{logger: l.logger.With().Str("component", component).Logger()}
}

// WithError adds an error field to the logger
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return &Logger{logger: l.logger.With().Err(err).Logger()}
}

// Debug logs a debug message
func (l *Logger) Debug() *zerolog.Event {
	return l.logger.Debug()
}

// Info logs an info message
func (l *Logger) Info() *zerolog.Event {
	return l.logger.Info()
}

// Warn logs a warning message
func (l *Logger) Warn() *zerolog.Event {
	return l.logger.Warn()
}

// Error logs an error message
func (l *Logger) Error() *zerolog.Event {
	return l.logger.Error()
}

// Debug logs a debug message using the global logger
func Debug() *zerolog.Event {
	return Get().Debug()
}

// Error logs an error message using the global logger
func Error() *zerolog.Event {
	return Get().Error()
}

// WithComponent returns a logger with a component field using the global logger
func WithComponent(component string) *Logger {
	return Get().WithComponent(component)
}
