// Package logging holds the process-wide zap logger used by the server, the
// CLI and the API handlers.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide logger. It is never nil.
var Logger *zap.Logger

// Config is the logging section of the application config.
type Config struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`

	// Format is console or json.
	Format string `yaml:"format"`

	// Output is stderr, stdout or a file path opened for append.
	Output string `yaml:"output"`

	// Development adds stack traces to error entries.
	Development bool `yaml:"development"`
}

func DefaultConfig() Config {
	return Config{Level: "info", Format: "console", Output: "stderr"}
}

// Validate rejects a level or format Initialize would not honour.
func (c Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("logging level: %w", err)
	}
	switch c.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging format %q: want console or json", c.Format)
	}
	return nil
}

// Initialize replaces Logger. An unknown level falls back to info.
func Initialize(cfg Config) error {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	sink, err := openSink(cfg.Output)
	if err != nil {
		return err
	}

	opts := []zap.Option{zap.AddCaller()}
	if cfg.Development {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.ErrorLevel))
	}
	Logger = zap.New(zapcore.NewCore(newEncoder(cfg.Format), sink, level), opts...)
	return nil
}

func newEncoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "timestamp"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	if format == "json" {
		return zapcore.NewJSONEncoder(ec)
	}
	ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(ec)
}

func openSink(output string) (zapcore.WriteSyncer, error) {
	switch output {
	case "", "stderr":
		return zapcore.AddSync(os.Stderr), nil
	case "stdout":
		return zapcore.AddSync(os.Stdout), nil
	}
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log output: %w", err)
	}
	return zapcore.AddSync(f), nil
}

// Use installs l as Logger, e.g. zap.NewNop() or an observer core in tests.
func Use(l *zap.Logger) { Logger = l }

func Sync() { _ = Logger.Sync() }

// Component returns Logger tagged with component=name.
func Component(name string) *zap.Logger {
	return Logger.With(zap.String("component", name))
}

func Debug(msg string, fields ...zap.Field) { Logger.Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { Logger.Info(msg, fields...) }

func init() {
	_ = Initialize(DefaultConfig())
}
