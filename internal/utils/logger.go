package utils

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultLogFileMaxSizeMegabytes = 10
	defaultLogFileMaxBackups       = 3
	defaultLogFileMaxAgeDays       = 28
)

// LoggerOptions tunes the application logger.
type LoggerOptions struct {
	Verbose bool
	// FilePath enables an additional rotating log file when non-empty.
	FilePath string
}

// NewApplicationLogger constructs a zap logger configured for human-readable console output.
func NewApplicationLogger() (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.DisableCaller = true
	config.DisableStacktrace = true
	config.EncoderConfig = consoleEncoderConfig()
	return config.Build()
}

// NewConfiguredLogger builds the logger used once configuration is known. Console output goes to stderr at
// WARN, or DEBUG when verbose; a lumberjack-rotated file receives DEBUG output when a file path is set.
func NewConfiguredLogger(options LoggerOptions) *zap.Logger {
	consoleLevel := zapcore.WarnLevel
	if options.Verbose {
		consoleLevel = zapcore.DebugLevel
	}
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(consoleEncoderConfig()),
		zapcore.Lock(os.Stderr),
		consoleLevel,
	)
	if options.FilePath == EmptyString {
		return zap.New(consoleCore)
	}

	fileWriter := &lumberjack.Logger{
		Filename:   options.FilePath,
		MaxSize:    defaultLogFileMaxSizeMegabytes,
		MaxBackups: defaultLogFileMaxBackups,
		MaxAge:     defaultLogFileMaxAgeDays,
		Compress:   true,
	}
	fileEncoderConfig := zap.NewProductionEncoderConfig()
	fileEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(fileEncoderConfig),
		zapcore.AddSync(fileWriter),
		zapcore.DebugLevel,
	)
	return zap.New(zapcore.NewTee(consoleCore, fileCore))
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.TimeKey = ""
	encoderConfig.NameKey = ""
	encoderConfig.CallerKey = ""
	encoderConfig.MessageKey = "message"
	encoderConfig.StacktraceKey = ""
	return encoderConfig
}
