// Package logging sets up the zap logger shared by every component.
package logging

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerContextKey struct{}

var (
	globalLogger *zap.Logger
	loggerKey    = loggerContextKey{}
)

// Level mirrors the handful of levels the config file may name.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Init builds the global logger: a console core always, plus a JSON file
// core when logFile is non-empty. Returns the logger and a cleanup func that
// flushes and closes the file.
func Init(level Level, logFile string) (*zap.Logger, func(), error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Local().Format("2006-01-02 15:04:05.000"))
	}
	encoderCfg.TimeKey = "timestamp"

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(os.Stderr),
		zapcore.Level(level.zapLevel()),
	)

	cores := []zapcore.Core{consoleCore}

	var logFd *os.File
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			return nil, nil, err
		}

		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		logFd = file

		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderCfg),
			zapcore.AddSync(file),
			zapcore.Level(level.zapLevel()),
		)
		cores = append(cores, fileCore)
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	globalLogger = logger

	cleanup := func() {
		_ = logger.Sync()
		if logFd != nil {
			_ = logFd.Close()
		}
	}

	return logger, cleanup, nil
}

// L returns the current global logger, constructing a development logger on
// first use if Init was never called.
func L() *zap.Logger {
	if globalLogger != nil {
		return globalLogger
	}
	logger, _ := zap.NewDevelopment()
	globalLogger = logger
	return logger
}

// WithContext attaches a logger to ctx for downstream retrieval.
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	if logger == nil {
		logger = L()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger attached by WithContext, or the global
// logger if ctx carries none.
func FromContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return L()
	}
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return L()
}
