package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const service = "jobpilot"

// Options control the process logger.
type Options struct {
	JSON  bool
	Debug bool
	// Level overrides Debug when set. Accepts zap level names.
	Level string
}

func (o Options) level() (zapcore.Level, error) {
	if name := strings.TrimSpace(o.Level); name != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
			return lvl, fmt.Errorf("log level %q: %w", name, err)
		}
		return lvl, nil
	}
	if o.Debug {
		return zapcore.DebugLevel, nil
	}
	return zapcore.InfoLevel, nil
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "time",
		CallerKey:      "caller",
		NameKey:        "component",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

// New builds the process logger. JSON output carries the service name on
// every entry.
func New(opts Options) (*zap.Logger, error) {
	lvl, err := opts.level()
	if err != nil {
		return nil, err
	}

	cfg := zap.Config{
		Encoding:         "console",
		Level:            zap.NewAtomicLevelAt(lvl),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    encoderConfig(),
	}
	if opts.JSON {
		cfg.Encoding = "json"
		cfg.InitialFields = map[string]any{"service": service}
	}

	return cfg.Build()
}
