package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the process-wide logger.
type Options struct {
	Level string
	Name  string
	// File enables a rotating log file in addition to stdout.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var (
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	mu     sync.RWMutex
	sugar  *zap.SugaredLogger
	closer io.Closer
)

func init() {
	sugar = build(Options{}, os.Stdout)
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("06-01-02 15:04:05")
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.ConsoleSeparator = " - "
	return cfg
}

func build(opts Options, stdout io.Writer) *zap.SugaredLogger {
	enc := zapcore.NewConsoleEncoder(encoderConfig())
	cores := []zapcore.Core{zapcore.NewCore(enc, zapcore.AddSync(stdout), level)}
	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		closer = lj
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(lj), level))
	}
	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	if opts.Name != "" {
		l = l.Named(opts.Name)
	}
	return l.Sugar()
}

// Init replaces the process logger. Call once at startup.
func Init(opts Options) {
	SetLevel(opts.Level)
	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		_ = closer.Close()
		closer = nil
	}
	sugar = build(opts, os.Stdout)
}

// SetOutput redirects the logger, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	sugar = build(Options{}, w)
}

func SetLevel(lvl string) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		level.SetLevel(zapcore.DebugLevel)
	case "warn", "warning":
		level.SetLevel(zapcore.WarnLevel)
	case "error":
		level.SetLevel(zapcore.ErrorLevel)
	default:
		level.SetLevel(zapcore.InfoLevel)
	}
}

// Sync flushes buffered entries and closes the rotating file, if any.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	_ = sugar.Sync()
	if closer != nil {
		_ = closer.Close()
		closer = nil
	}
}

func active() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func Debugf(format string, v ...any) { active().Debugf(format, v...) }
func Infof(format string, v ...any)  { active().Infof(format, v...) }
func Warnf(format string, v ...any)  { active().Warnf(format, v...) }
func Errorf(format string, v ...any) { active().Errorf(format, v...) }
func Fatalf(format string, v ...any) { active().Fatalf(format, v...) }

// Infow logs a message with structured key/value pairs.
func Infow(msg string, kv ...any)  { active().Infow(msg, kv...) }
func Warnw(msg string, kv ...any)  { active().Warnw(msg, kv...) }
func Errorw(msg string, kv ...any) { active().Errorw(msg, kv...) }
