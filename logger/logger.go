package logger

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.Logger
	sugar  *zap.SugaredLogger
	once   sync.Once

	// Output is where log entries are written. Stdout is reserved for answers
	// printed by the CLI, so entries go to stderr unless overridden before Init.
	Output io.Writer = os.Stderr
)

// Init initializes the logger with the given log level
// Valid levels: debug, info, warn, error, dpanic, panic, fatal
func Init(level string) {
	once.Do(func() {
		// Parse log level
		var zapLevel zapcore.Level
		if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
			zapLevel = zap.InfoLevel
		}

		// Create encoder config
		encoderConfig := zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.MillisDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		}

		// Create core
		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(Output),
			zapLevel,
		)

		// Create logger
		logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
		sugar = logger.Sugar()
	})
}

// Sugar returns the global sugared logger
func Sugar() *zap.SugaredLogger {
	if sugar == nil {
		// If logger hasn't been initialized, initialize with info level
		Init("info")
	}
	return sugar
}

// GetLogger returns the global zap logger
func GetLogger() *zap.Logger {
	if logger == nil {
		Init("info")
	}
	return logger
}

// With returns a sugared logger carrying the given key/value pairs, used to
// tag every entry of one session or request.
func With(keysAndValues ...interface{}) *zap.SugaredLogger {
	return Sugar().Desugar().WithOptions(zap.AddCallerSkip(-1)).Sugar().With(keysAndValues...)
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}

func Debug(args ...interface{}) {
	Sugar().Debug(args...)
}

func Info(args ...interface{}) {
	Sugar().Info(args...)
}

func Warn(args ...interface{}) {
	Sugar().Warn(args...)
}

func Error(args ...interface{}) {
	Sugar().Error(args...)
}

// Debugf logs a formatted message at debug level
func Debugf(template string, args ...interface{}) {
	Sugar().Debugf(template, args...)
}

// Infof logs a formatted message at info level
func Infof(template string, args ...interface{}) {
	Sugar().Infof(template, args...)
}

// Warnf logs a formatted message at warn level
func Warnf(template string, args ...interface{}) {
	Sugar().Warnf(template, args...)
}

// Errorf logs a formatted message at error level
func Errorf(template string, args ...interface{}) {
	Sugar().Errorf(template, args...)
}
