package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"netpulse/internal/paths"
)

// FileName is the active log file inside the log directory.
const FileName = "netpulse.log"

// Options selects where and how much to log.
type Options struct {
	Level   string // debug, info, warn, error
	Dir     string // empty disables the file sink
	Console io.Writer
}

// NewLogger builds a JSON logger writing to a rotated file in Dir, tee'd to a
// human-readable console sink when Console is set.
func NewLogger(opts Options) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	var cores []zapcore.Core
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, err
		}
		paths.ChownToRealUser(opts.Dir)
		w := zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, FileName),
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		})
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "ts"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(cfg), w, level))
	}
	if opts.Console != nil {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.Lock(zapcore.AddSync(opts.Console)), level))
	}
	if len(cores) == 0 {
		return zap.NewNop(), nil
	}
	return zap.New(zapcore.NewTee(cores...)), nil
}

// DefaultDir returns the state directory used when no log dir is configured.
func DefaultDir() (string, error) {
	return paths.StateDir()
}
