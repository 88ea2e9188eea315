// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package commons

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the application-wide logging contract. All components take a
// Logger instead of a concrete zap type so tests can pass a no-op logger
// and the sink can be swapped without touching call sites.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
	Benchmark(name string, took time.Duration)
	Sync() error
}

type applicationLogger struct {
	*zap.SugaredLogger
}

// LoggerOption configures the application logger.
type LoggerOption func(*loggerOptions)

type loggerOptions struct {
	level   string
	logFile string
}

// WithLevel sets the minimum log level (debug, info, warn, error).
func WithLevel(level string) LoggerOption {
	return func(o *loggerOptions) { o.level = level }
}

// WithLogFile sends output to a size-rotated file instead of stderr.
func WithLogFile(path string) LoggerOption {
	return func(o *loggerOptions) { o.logFile = path }
}

// NewApplicationLogger builds the process logger. Defaults to debug level
// on stderr, console encoding; production deployments pass WithLogFile to
// get rotated JSON output.
func NewApplicationLogger(opts ...LoggerOption) (Logger, error) {
	options := loggerOptions{level: "debug"}
	for _, opt := range opts {
		opt(&options)
	}

	level := zapcore.DebugLevel
	if err := level.Set(options.level); err != nil {
		return nil, err
	}

	var core zapcore.Core
	if options.logFile != "" {
		writer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   options.logFile,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
		})
		encoderCfg := zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		core = zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), writer, level)
	} else {
		encoderCfg := zap.NewDevelopmentEncoderConfig()
		core = zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderCfg),
			zapcore.Lock(os.Stderr),
			level,
		)
	}

	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	return &applicationLogger{logger.Sugar()}, nil
}

// Benchmark logs a named duration at debug level.
func (l *applicationLogger) Benchmark(name string, took time.Duration) {
	l.Debugw("benchmark", "name", name, "took", took.String())
}
