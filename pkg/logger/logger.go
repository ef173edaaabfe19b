// Package logger holds the process-wide zap logger. Handlers and services
// receive it implicitly through this package rather than each constructing
// their own.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the global logger instance.
var Log *zap.Logger = zap.NewNop()

// Initialize sets up the logger for the given environment. "production"
// gets JSON output with ISO8601 timestamps; anything else gets the
// colored development console encoder.
func Initialize(env string) error {
	var config zap.Config
	if env == "production" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	log, err := config.Build()
	if err != nil {
		return err
	}
	Log = log
	return nil
}

// Sync flushes buffered log entries. Called on shutdown.
func Sync() {
	_ = Log.Sync()
}
