// Package logger provides the structured logger used across elastiq.
// The logger is a no-op until Initialize is called, so embedding
// applications stay quiet by default.
package logger

import (
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the package-level logger instance.
var Log = zap.NewNop()

// Initialize sets up the structured logger. Console output is human
// readable; when logFile is non-empty, JSON output is also written there
// with rotation.
// logLevel: "debug", "info", "warn", "error" (default: "info")
func Initialize(logLevel string, logFile string) error {
	level := parseLogLevel(logLevel)

	consoleEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	consoleCore := zapcore.NewCore(
		consoleEncoder,
		zapcore.AddSync(os.Stdout),
		level,
	)

	core := consoleCore
	if logFile != "" {
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     7, // days
			Compress:   true,
		})

		jsonEncoderConfig := zap.NewProductionEncoderConfig()
		jsonEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		jsonEncoder := zapcore.NewJSONEncoder(jsonEncoderConfig)

		fileCore := zapcore.NewCore(jsonEncoder, fileWriter, level)
		core = zapcore.NewTee(consoleCore, fileCore)
	}

	Log = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return nil
}

// Close flushes the logger before shutdown.
func Close() error {
	if Log != nil {
		return Log.Sync()
	}
	return nil
}

// parseLogLevel converts string to zapcore.Level
func parseLogLevel(levelStr string) zapcore.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Field constructors for the attributes elastiq logs most.

func WithIndex(index string) zap.Field {
	return zap.String("index", index)
}

func WithOperation(operation string) zap.Field {
	return zap.String("operation", operation)
}

func WithConnection(name string) zap.Field {
	return zap.String("connection", name)
}

func WithKey(key string) zap.Field {
	return zap.String("cache_key", key)
}

func WithDuration(d time.Duration) zap.Field {
	return zap.Duration("duration", d)
}

func WithError(err error) zap.Field {
	return zap.Error(err)
}
