package logging

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global atomic.Pointer[zap.SugaredLogger]

// Init builds the process logger. Output is always JSON; production logs at
// info level, every other environment at debug. A non-empty level overrides.
func Init(appEnv, level string) error {
	var config zap.Config
	if appEnv == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Encoding = "json"

	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		config.Level = lvl
	}

	logger, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	global.Store(logger.Sugar())
	return nil
}

// GetLogger returns the process logger, falling back to a production logger
// when Init was never called.
func GetLogger() *zap.SugaredLogger {
	if l := global.Load(); l != nil {
		return l
	}
	logger, _ := zap.NewProduction()
	global.CompareAndSwap(nil, logger.Sugar())
	return global.Load()
}

// UseLogger replaces the process logger. Tests pass zap.NewNop().Sugar().
func UseLogger(l *zap.SugaredLogger) {
	global.Store(l)
}

// Close flushes any buffered logs
func Close() error {
	if l := global.Load(); l != nil {
		return l.Sync()
	}
	return nil
}

func Info(message string, fields ...interface{}) {
	GetLogger().Infow(message, fields...)
}

func Debug(message string, fields ...interface{}) {
	GetLogger().Debugw(message, fields...)
}

func Warn(message string, fields ...interface{}) {
	GetLogger().Warnw(message, fields...)
}

func Error(message string, fields ...interface{}) {
	GetLogger().Errorw(message, fields...)
}

// Fatal logs and exits the process with status 1.
func Fatal(message string, fields ...interface{}) {
	GetLogger().Fatalw(message, fields...)
}

// With returns a child logger carrying the given fields, e.g. the component name.
func With(fields ...interface{}) *zap.SugaredLogger {
	return GetLogger().With(fields...)
}
