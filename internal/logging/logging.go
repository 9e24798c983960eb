package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the global logger instance for the application
var Logger *zap.SugaredLogger

func init() {
	logger, _ := zap.NewProduction(zap.AddCallerSkip(1))
	Logger = logger.Sugar()
}

// Init replaces the global logger with one built for the given level and format.
// format is "json" (default) or "console".
func Init(level, format string) error {
	var cfg zap.Config
	if strings.ToLower(format) == "console" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder

	lvl := zap.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
			return err
		}
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	Logger = logger.Sugar()
	return nil
}

// With returns a child logger carrying the given key/value pairs. Callers log
// through it directly, so the helper caller skip is undone.
func With(args ...interface{}) *zap.SugaredLogger {
	return Logger.Desugar().WithOptions(zap.AddCallerSkip(-1)).Sugar().With(args...)
}

// Sync flushes buffered log entries.
func Sync() { _ = Logger.Sync() }

// Top-level helpers for package alias usage
func Infof(format string, args ...interface{})  { Logger.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { Logger.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { Logger.Errorf(format, args...) }
func Debugf(format string, args ...interface{}) { Logger.Debugf(format, args...) }
func Fatalf(format string, args ...interface{}) { Logger.Fatalf(format, args...) }
