package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// rootName prefixes every component logger
const rootName = "xos"

// Logger is the process-wide structured logger. Components derive their own
// with Named.
type Logger struct {
	*zap.Logger
}

// Config selects the level, the encoding and the sinks.
type Config struct {
	Level       string // debug, info, warn or error
	Development bool   // console encoding with colors and stack traces
	OutputPaths []string
}

// New builds a logger from cfg. An empty level means info; no output paths
// means stdout.
func New(cfg Config) (*Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	zc := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Development,
		Encoding:          "json",
		EncoderConfig:     productionEncoder(),
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: !cfg.Development,
	}
	if cfg.Development {
		zc.Encoding = "console"
		zc.EncoderConfig = developmentEncoder()
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return &Logger{Logger: logger.Named(rootName)}, nil
}

// FromLevel builds a logger for the configured level and mode. An empty or
// unusable level falls back to info (production) or debug (development).
func FromLevel(level string, development bool) *Logger {
	fallback := "info"
	if development {
		fallback = "debug"
	}
	if level == "" {
		level = fallback
	}

	logger, err := New(Config{Level: level, Development: development})
	if err == nil {
		return logger
	}
	logger, err = New(Config{Level: fallback, Development: development})
	if err != nil {
		return NewNop()
	}
	logger.Warn("Unknown log level, using fallback",
		zap.String("level", level),
		zap.String("fallback", fallback),
	)
	return logger
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

func productionEncoder() zapcore.EncoderConfig {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "timestamp"
	ec.MessageKey = "message"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	return ec
}

func developmentEncoder() zapcore.EncoderConfig {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	ec.EncodeDuration = zapcore.StringDurationEncoder
	return ec
}
