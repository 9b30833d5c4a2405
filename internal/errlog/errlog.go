// Package errlog is the durable record of swallowed failures: an append-only
// file of timestamp-prefixed lines, one per failure.
package errlog

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const timeLayout = "2006-01-02 15:04:05"

// Log appends failure lines to a file and mirrors them to the global logger.
type Log struct {
	logger *zap.Logger
	closer func() error
	count  atomic.Int64
}

// Open opens (or creates) path for appending.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, eris.Wrapf(err, "errlog: open %s", path)
	}
	l := New(zapcore.AddSync(f))
	l.closer = f.Close
	return l, nil
}

// New builds a Log over an arbitrary sink.
func New(ws zapcore.WriteSyncer) *Log {
	encCfg := zapcore.EncoderConfig{
		TimeKey:          "ts",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		ConsoleSeparator: " ",
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString("[" + t.Format(timeLayout) + "]")
		},
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), ws, zapcore.DebugLevel)
	return &Log{logger: zap.New(core), closer: func() error { return nil }}
}

// Discard returns a Log that writes nowhere but still counts entries.
func Discard() *Log {
	return New(zapcore.AddSync(nopWriter{}))
}

// Record appends one line and echoes it to the console logger at error level.
func (l *Log) Record(msg string, fields ...zap.Field) {
	l.count.Add(1)
	l.logger.Error(msg, fields...)
	zap.L().Error(msg, fields...)
}

// Count returns the number of lines recorded since construction.
func (l *Log) Count() int64 {
	return l.count.Load()
}

// Close flushes and releases the underlying file.
func (l *Log) Close() error {
	_ = l.logger.Sync()
	if err := l.closer(); err != nil {
		return eris.Wrap(err, "errlog: close")
	}
	return nil
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
