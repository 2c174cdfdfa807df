// Package zap adapts a *zap.Logger to cachewrapper.Logger.
package zap

import (
	"go.uber.org/zap"

	cachewrapper "github.com/holidayextras/cache-wrapper"
)

var _ cachewrapper.Logger = Logger{}

type Logger struct{ L *zap.Logger }

// New names the logger "cachewrapper" so its lines are easy to filter.
func New(l *zap.Logger) Logger { return Logger{L: l.Named("cachewrapper")} }

func (z Logger) Debug(msg string, f cachewrapper.Fields) { z.L.Debug(msg, fields(f)...) }
func (z Logger) Info(msg string, f cachewrapper.Fields)  { z.L.Info(msg, fields(f)...) }
func (z Logger) Warn(msg string, f cachewrapper.Fields)  { z.L.Warn(msg, fields(f)...) }
func (z Logger) Error(msg string, f cachewrapper.Fields) { z.L.Error(msg, fields(f)...) }

func fields(f cachewrapper.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, v))
	}
	return out
}
