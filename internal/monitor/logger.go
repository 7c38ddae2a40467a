package monitor

import (
	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// cronLogger routes gocron's key/value logging into zap.
type cronLogger struct {
	l *zap.SugaredLogger
}

var _ gocron.Logger = cronLogger{}

func newCronLogger(l *zap.Logger) cronLogger {
	return cronLogger{l: l.Named("gocron").Sugar()}
}

func (c cronLogger) Debug(msg string, args ...any) { c.l.Debugw(msg, args...) }
func (c cronLogger) Error(msg string, args ...any) { c.l.Errorw(msg, args...) }
func (c cronLogger) Info(msg string, args ...any)  { c.l.Infow(msg, args...) }
func (c cronLogger) Warn(msg string, args ...any)  { c.l.Warnw(msg, args...) }
