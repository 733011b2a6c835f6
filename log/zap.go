package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger adapts a zap logger to the HarnessLogger interface. It is
// used for machine readable (json) output, e.g. on CI.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

func NewZapLogger(l *zap.Logger) *ZapLogger {
	return &ZapLogger{sugar: l.Sugar()}
}

// NewJSONLogger builds a production zap logger writing json lines to
// stderr.
func NewJSONLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func (z *ZapLogger) Infof(format string, v ...interface{}) {
	z.sugar.Infof(format, v...)
}

func (z *ZapLogger) Debugf(format string, v ...interface{}) {
	z.sugar.Debugf(format, v...)
}

func (z *ZapLogger) Warnf(format string, v ...interface{}) {
	z.sugar.Warnf(format, v...)
}

func (z *ZapLogger) Errorf(format string, v ...interface{}) {
	z.sugar.Errorf(format, v...)
}

func (z *ZapLogger) Sync() error {
	return z.sugar.Sync()
}
