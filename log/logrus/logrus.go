// Package logrus adapts a logrus entry to cachewrapper.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	cachewrapper "github.com/holidayextras/cache-wrapper"
)

var _ cachewrapper.Logger = Logger{}

type Logger struct{ E *logrus.Entry }

// New tags every line with component=cachewrapper.
func New(l *logrus.Logger) Logger {
	return Logger{E: l.WithField("component", "cachewrapper")}
}

func (l Logger) Debug(msg string, f cachewrapper.Fields) { l.with(f).Debug(msg) }
func (l Logger) Info(msg string, f cachewrapper.Fields)  { l.with(f).Info(msg) }
func (l Logger) Warn(msg string, f cachewrapper.Fields)  { l.with(f).Warn(msg) }
func (l Logger) Error(msg string, f cachewrapper.Fields) { l.with(f).Error(msg) }

func (l Logger) with(f cachewrapper.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	return l.E.WithFields(logrus.Fields(f))
}
