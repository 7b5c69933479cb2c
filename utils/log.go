package utils

/*
A wrapper of the standard library logger that adds log levels and a
per-module tag. Each package creates its own tagged instance via
NewLogger; the level is set once at startup from the configuration.
*/

import (
	"fmt"
	"log"
	"os"
)

const (
	LogErrorLevel int = 0
	LogWarnLevel  int = 1
	LogInfoLevel  int = 2
	LogDebugLevel int = 3

	defaultCallDepth = 3
)

var (
	stdout   = log.New(os.Stdout, "", log.LstdFlags|log.Lshortfile)
	logLevel = LogInfoLevel
)

func SetLogLevel(level int) {
	logLevel = level
}

type Logger struct {
	*log.Logger
	prefix string
}

func NewLogger(tag string) *Logger {
	prefix := ""
	if len(tag) != 0 {
		prefix = "[" + tag + "]"
	}
	return &Logger{
		Logger: stdout,
		prefix: prefix,
	}
}

func (l *Logger) Fatal(format string, v ...interface{}) {
	l.output("[Fatal] ", format, v...)
	os.Exit(1)
}

func (l *Logger) Fatalln(v ...interface{}) {
	l.output("[Fatal] ", "%v\n", v...)
	os.Exit(1)
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.output("[Error] ", format, v...)
}

func (l *Logger) Warn(format string, v ...interface{}) {
	if LogWarnLevel <= logLevel {
		l.output("[Warn] ", format, v...)
	}
}

func (l *Logger) Warnln(v ...interface{}) {
	if LogWarnLevel <= logLevel {
		l.output("[Warn] ", "%v\n", v...)
	}
}

func (l *Logger) Info(format string, v ...interface{}) {
	if LogInfoLevel <= logLevel {
		l.output("[Info] ", format, v...)
	}
}

func (l *Logger) Infoln(v ...interface{}) {
	if LogInfoLevel <= logLevel {
		l.output("[Info] ", "%v\n", v...)
	}
}

func (l *Logger) Debug(format string, v ...interface{}) {
	if LogDebugLevel <= logLevel {
		l.output("[Debug] ", format, v...)
	}
}

func (l *Logger) output(level string, format string, v ...interface{}) {
	l.Logger.Output(defaultCallDepth, fmt.Sprintf(l.prefix+level+format, v...))
}
