// File: internal/platform/logger/zap.go
package logger

import (
	"strings"

	"guidecheck_backend/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New initializes a new Zap logger based on the application configuration.
func New(cfg *config.Config) (*zap.Logger, error) {
	var zapConfig zap.Config

	level := zapcore.InfoLevel
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn", "warning":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	case "dpanic":
		level = zapcore.DPanicLevel
	case "panic":
		level = zapcore.PanicLevel
	case "fatal":
		level = zapcore.FatalLevel
	}

	// Mirror Gin's notion of release vs debug for encoder defaults.
	if cfg.GinMode == "release" {
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig.Level = zap.NewAtomicLevelAt(level)

	if strings.ToLower(cfg.LogFormat) == "json" {
		zapConfig.Encoding = "json"
	} else {
		zapConfig.Encoding = "console"
	}

	logger, err := zapConfig.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return logger, nil
}

// NewSugaredLogger provides a SugaredLogger for convenience.
func NewSugaredLogger(cfg *config.Config) (*zap.SugaredLogger, error) {
	logger, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// NewDefaultLogger is for testing or simple scenarios where config might not
// be fully loaded.
func NewDefaultLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}
