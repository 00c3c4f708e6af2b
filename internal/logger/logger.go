package logger

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log = zap.NewNop()

const (
	JSONFormat    = "json"
	ConsoleFormat = "console"
)

type Configuration struct {
	LogFile   string `mapstructure:"file"`
	ErrorFile string `mapstructure:"error_file"`
	Level     string `mapstructure:"level"`
	Console   bool   `mapstructure:"console"`
	// ConsoleFormat is json or console, files are always written as json.
	ConsoleFormat string `mapstructure:"console_format"`
	// TimeFormat is iso8601, rfc3339 or epoch.
	TimeFormat string `mapstructure:"time_format"`
}

func encoderConfig(configuration Configuration) (zapcore.EncoderConfig, error) {
	config := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	switch configuration.TimeFormat {
	case "", "iso8601":
		config.EncodeTime = zapcore.ISO8601TimeEncoder
	case "rfc3339":
		config.EncodeTime = zapcore.RFC3339TimeEncoder
	case "epoch":
		config.EncodeTime = zapcore.EpochTimeEncoder
	default:
		return config, errors.Errorf("unknown log time format %q", configuration.TimeFormat)
	}

	return config, nil
}

func consoleEncoder(configuration Configuration, config zapcore.EncoderConfig) (zapcore.Encoder, error) {
	switch configuration.ConsoleFormat {
	case "", ConsoleFormat:
		config.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(config), nil
	case JSONFormat:
		return zapcore.NewJSONEncoder(config), nil
	}
	return nil, errors.Errorf("unknown log console format %q", configuration.ConsoleFormat)
}

func openFile(path string) (zapcore.WriteSyncer, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "open log file")
	}
	return zapcore.AddSync(file), nil
}

// Initialize replaces the process logger. An unknown level falls back to
// debug; unknown formats are rejected.
func Initialize(configuration Configuration) error {

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(configuration.Level)); err != nil {
		level = zapcore.DebugLevel
	}

	config, err := encoderConfig(configuration)
	if err != nil {
		return err
	}

	var cores []zapcore.Core

	if configuration.LogFile != "" {
		logFile, err := openFile(configuration.LogFile)
		if err != nil {
			return err
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(config), logFile, level))
	}

	if configuration.ErrorFile != "" {
		errorFile, err := openFile(configuration.ErrorFile)
		if err != nil {
			return err
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(config), errorFile, zapcore.ErrorLevel))
	}

	if configuration.Console {
		encoder, err := consoleEncoder(configuration, config)
		if err != nil {
			return err
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level))
	}

	log = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	return nil
}

func Debug(message string, fields ...zap.Field) {
	log.Debug(message, fields...)
}

func Info(message string, fields ...zap.Field) {
	log.Info(message, fields...)
}

func Warn(message string, fields ...zap.Field) {
	log.Warn(message, fields...)
}

func Error(message string, fields ...zap.Field) {
	log.Error(message, fields...)
}

func Fatal(message string, fields ...zap.Field) {
	log.Fatal(message, fields...)
}

func Sync() {
	_ = log.Sync()
}
