// Package logging builds the shared zap logger.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls log level and the optional rotating file sink.
type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// New returns a production-encoded logger writing to stderr and, when
// opts.File is set, to a size-rotated file as well.
func New(opts Options) *zap.Logger {
	level := zapcore.InfoLevel
	if err := level.Set(opts.Level); err != nil {
		level = zapcore.InfoLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	sinks := []zapcore.WriteSyncer{zapcore.AddSync(os.Stderr)}
	if opts.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		}
		sinks = append(sinks, zapcore.AddSync(rotated))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(sinks...), level)
	return zap.New(core, zap.AddCaller())
}
