// Package log holds the process-wide zap logger.
package log

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var log *zap.SugaredLogger
var baseLogger *zap.Logger
var level = zap.NewAtomicLevel()

// Options configures Init. File, when set, sends output to a rotating log
// file instead of stderr.
type Options struct {
	Level      string
	Debug      bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Init builds the package-level logger.
func Init(opts Options) error {
	lvl := zapcore.InfoLevel
	if opts.Level != "" {
		if err := lvl.Set(opts.Level); err != nil {
			return fmt.Errorf("can't parse log level %q: %w", opts.Level, err)
		}
	}
	if opts.Debug {
		lvl = zapcore.DebugLevel
	}
	level.SetLevel(lvl)

	var zapLogger *zap.Logger
	if opts.File != "" {
		writer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		})
		encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		zapLogger = zap.New(zapcore.NewCore(encoder, writer, level), zap.AddCaller(), zap.AddCallerSkip(1))
	} else {
		var cfg zap.Config
		if opts.Debug {
			cfg = zap.NewDevelopmentConfig()
		} else {
			cfg = zap.NewProductionConfig()
		}
		cfg.Level = level
		var err error
		zapLogger, err = cfg.Build(zap.AddCallerSkip(1))
		if err != nil {
			return fmt.Errorf("can't initialize zap logger: %w", err)
		}
	}

	baseLogger = zapLogger
	log = zapLogger.Sugar()
	return nil
}

// SetLevel changes the level of the running logger.
func SetLevel(name string) error {
	var lvl zapcore.Level
	if err := lvl.Set(name); err != nil {
		return fmt.Errorf("can't parse log level %q: %w", name, err)
	}
	level.SetLevel(lvl)
	return nil
}

// GetSugaredLogger returns the sugared logger, falling back to a production
// logger when Init has not been called.
func GetSugaredLogger() *zap.SugaredLogger {
	if log == nil {
		baseLogger, _ = zap.NewProduction(zap.AddCallerSkip(1))
		log = baseLogger.Sugar()
	}
	return log
}

// GetZapLogger returns the underlying structured logger.
func GetZapLogger() *zap.Logger {
	GetSugaredLogger()
	return baseLogger
}

// Named returns a child logger for components that log directly rather than
// through the package functions, so callers are reported correctly.
func Named(name string) *zap.SugaredLogger {
	return GetZapLogger().WithOptions(zap.AddCallerSkip(-1)).Named(name).Sugar()
}

// Sync flushes buffered entries.
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}

func Infow(msg string, keysAndValues ...any) {
	GetSugaredLogger().Infow(msg, keysAndValues...)
}

func Warnw(msg string, keysAndValues ...any) {
	GetSugaredLogger().Warnw(msg, keysAndValues...)
}

func Errorw(msg string, keysAndValues ...any) {
	GetSugaredLogger().Errorw(msg, keysAndValues...)
}

func Fatalf(template string, args ...any) {
	GetSugaredLogger().Fatalf(template, args...)
	os.Exit(1)
}
