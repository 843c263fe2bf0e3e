package logger

import (
	"moswords/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap sugared logger. The zero value discards everything,
// which keeps hand-built structs in tests usable.
type Logger struct {
	sugar *zap.SugaredLogger
}

var levels = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
	"panic": zapcore.PanicLevel,
	"fatal": zapcore.FatalLevel,
}

func NewLogger(cfg *config.Config) (*Logger, error) {
	level, ok := levels[cfg.LoggerMode.Level]
	if !ok {
		level = zapcore.InfoLevel
	}

	var zcfg zap.Config
	if cfg.LoggerMode.Development && !cfg.LoggerMode.Prod {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.TimeKey = "time"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	l, err := zcfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{sugar: l.Sugar()}, nil
}

// NewNop returns a logger that writes nothing.
func NewNop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

func (l *Logger) s() *zap.SugaredLogger {
	if l == nil || l.sugar == nil {
		return zap.NewNop().Sugar()
	}
	return l.sugar
}

// Named returns a child logger tagged with the component name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{sugar: l.s().Named(name)}
}

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{sugar: l.s().With(keysAndValues...)}
}

func (l *Logger) Debug(msg string, keysAndValues ...any) { l.s().Debugw(msg, keysAndValues...) }
func (l *Logger) Info(msg string, keysAndValues ...any)  { l.s().Infow(msg, keysAndValues...) }
func (l *Logger) Warn(msg string, keysAndValues ...any)  { l.s().Warnw(msg, keysAndValues...) }
func (l *Logger) Error(msg string, keysAndValues ...any) { l.s().Errorw(msg, keysAndValues...) }

func (l *Logger) Debugf(template string, args ...any) { l.s().Debugf(template, args...) }
func (l *Logger) Infof(template string, args ...any)  { l.s().Infof(template, args...) }
func (l *Logger) Warnf(template string, args ...any)  { l.s().Warnf(template, args...) }
func (l *Logger) Errorf(template string, args ...any) { l.s().Errorf(template, args...) }
func (l *Logger) Fatalf(template string, args ...any) { l.s().Fatalf(template, args...) }

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.s().Sync()
}
