// Package logger provides leveled structured logging.
package logger

import (
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents a logging level.
type Level = zapcore.Level

const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
)

var defaultLogger atomic.Pointer[zap.SugaredLogger]

func init() {
	defaultLogger.Store(zap.NewNop().Sugar())
}

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Init initializes the default logger with the specified level and format.
// Format "json" writes one JSON object per line; "text" uses the console encoder.
func Init(level string, format string) {
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if strings.ToLower(format) == "text" {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), ParseLevel(level))
	SetDefault(zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel)))
}

// SetDefault replaces the package logger. A nil logger disables output.
func SetDefault(z *zap.Logger) {
	if z == nil {
		z = zap.NewNop()
	}
	defaultLogger.Store(z.Sugar())
}

// Sync flushes buffered entries.
func Sync() error {
	return defaultLogger.Load().Sync()
}

func Debug(format string, args ...interface{}) {
	defaultLogger.Load().Debugf(format, args...)
}

func Info(format string, args ...interface{}) {
	defaultLogger.Load().Infof(format, args...)
}

func Warn(format string, args ...interface{}) {
	defaultLogger.Load().Warnf(format, args...)
}

func Error(format string, args ...interface{}) {
	defaultLogger.Load().Errorf(format, args...)
}
