package persist

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a file-backed logger that brackets its output with STARTUP and
// SHUTDOWN banner lines, matching the convention every long-running ledgerd
// component uses so log files are easy to scan for a clean run.
type Logger struct {
	zl   *zap.Logger
	file *os.File
}

// NewLogger opens (creating if necessary) filename and returns a Logger that
// appends to it, writing a STARTUP banner immediately.
func NewLogger(filename string) (*Logger, error) {
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(f), zap.InfoLevel)

	l := &Logger{zl: zap.New(core), file: f}
	l.zl.Info("STARTUP: logging has started")
	return l, nil
}

// Println logs a line at info level, formatting its arguments as
// fmt.Sprint does (a space only between operands when neither is a string);
// the encoder supplies the trailing newline.
func (l *Logger) Println(v ...interface{}) {
	l.zl.Info(fmt.Sprint(v...))
}

// Printf logs a formatted line at info level.
func (l *Logger) Printf(format string, v ...interface{}) {
	l.zl.Info(fmt.Sprintf(format, v...))
}

// Close writes a SHUTDOWN banner, flushes, and closes the underlying file.
func (l *Logger) Close() error {
	l.zl.Info("SHUTDOWN: logging has terminated")
	l.zl.Sync()
	return l.file.Close()
}
