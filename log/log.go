package log

import (
	"fmt"
	"os"

	"github.com/on-the-ground/fiber_ive_go/fiber"
	"github.com/on-the-ground/fiber_ive_go/model"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel defines the severity level for log messages.
type LogLevel string

const (
	// LogInfo is used for general informational messages.
	LogInfo LogLevel = "info"

	// LogWarn is used for potentially harmful situations.
	LogWarn LogLevel = "warn"

	// LogError is used for error events that might still allow the application to continue running.
	LogError LogLevel = "error"

	// LogDebug is used for debugging messages with detailed internal information.
	LogDebug LogLevel = "debug"
)

// NewLogger builds the runtime logger from cfg.
func NewLogger(cfg model.LogConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parsing log level: %w", err)
		}
		level = parsed
	}

	var encoder zapcore.Encoder
	switch cfg.Encoding {
	case "", "json":
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	case "console":
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	default:
		return nil, fmt.Errorf("unknown log encoding: %q", cfg.Encoding)
	}

	return zap.New(zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)), nil
}

// NewTestLogger logs everything to stdout in console format.
func NewTestLogger() *zap.Logger {
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(os.Stdout),
		zap.DebugLevel,
	)
	return zap.New(consoleCore)
}

// Effect logs msg through the current fiber's logger when it runs.
func Effect(level LogLevel, msg string, fields map[string]interface{}) fiber.Effect[struct{}] {
	return fiber.FlatMap(fiber.Logger(), func(logger *zap.Logger) fiber.Effect[struct{}] {
		return fiber.Sync(func() struct{} {
			write(logger, level, msg, fields)
			return struct{}{}
		})
	})
}

func write(logger *zap.Logger, level LogLevel, msg string, fields map[string]interface{}) {
	zapFields := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zapFields = append(zapFields, zap.Any(k, v))
	}

	switch level {
	case LogInfo:
		logger.Info(msg, zapFields...)
	case LogWarn:
		logger.Warn(msg, zapFields...)
	case LogError:
		logger.Error(msg, zapFields...)
	case LogDebug:
		logger.Debug(msg, zapFields...)
	default:
		logger.Info(msg, zapFields...)
	}
}
