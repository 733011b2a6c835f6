// Package log is the logging facade of the harness. Until SetLogger is
// called messages go to the standard logger with a level prefix.
package log

import (
	stdlog "log"
	"sync/atomic"
)

type HarnessLogger interface {
	Infof(format string, v ...interface{})
	Debugf(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

var current atomic.Value // holds loggerBox

type loggerBox struct {
	l HarnessLogger
}

// SetLogger replaces the logger used by the package functions. Passing
// nil restores the standard logger.
func SetLogger(harnessLogger HarnessLogger) {
	current.Store(loggerBox{l: harnessLogger})
}

func get() HarnessLogger {
	b, _ := current.Load().(loggerBox)
	return b.l
}

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
)

var prefixes = map[level]string{
	levelDebug: "[DEBUG] ",
	levelInfo:  "[INFO] ",
	levelWarn:  "[WARN] ",
	levelError: "[ERROR] ",
}

func logf(lvl level, format string, v ...interface{}) {
	l := get()
	if l == nil {
		stdlog.Printf(prefixes[lvl]+format, v...)
		return
	}
	switch lvl {
	case levelDebug:
		l.Debugf(format, v...)
	case levelInfo:
		l.Infof(format, v...)
	case levelWarn:
		l.Warnf(format, v...)
	default:
		l.Errorf(format, v...)
	}
}

func Debugf(format string, v ...interface{}) { logf(levelDebug, format, v...) }

func Infof(format string, v ...interface{}) { logf(levelInfo, format, v...) }

func Warnf(format string, v ...interface{}) { logf(levelWarn, format, v...) }

func Errorf(format string, v ...interface{}) { logf(levelError, format, v...) }
