// Package logger builds the zap loggers shared by jobpilot commands.
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns a console logger on stderr, keeping stdout free for
// streamed assistant text.
func NewLogger(debug bool) *zap.Logger {
	return NewLoggerWithWriters(debug, os.Stderr)
}

func NewLoggerWithWriters(debug bool, writers ...io.Writer) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	return zap.New(newCore(zapcore.NewConsoleEncoder(encoderConfig), debug, writers), zap.AddCaller())
}

// NewJSONLogger returns a logger that writes one JSON object per line, for
// log files that are read by tools rather than people.
func NewJSONLogger(debug bool, writers ...io.Writer) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zap.New(newCore(zapcore.NewJSONEncoder(encoderConfig), debug, writers), zap.AddCaller())
}

func newCore(enc zapcore.Encoder, debug bool, writers []io.Writer) zapcore.Core {
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	if len(writers) == 0 {
		writers = []io.Writer{os.Stderr}
	}

	syncers := make([]zapcore.WriteSyncer, 0, len(writers))
	for _, writer := range writers {
		syncers = append(syncers, zapcore.AddSync(writer))
	}

	return zapcore.NewCore(enc, zapcore.NewMultiWriteSyncer(syncers...), level)
}
