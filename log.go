package bridge

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger is the logging surface used by every component of the bridge.
type Logger interface {
	Info(...interface{})
	Debug(...interface{})
	Error(...interface{})
	Warn(...interface{})

	Infof(string, ...interface{})
	Debugf(string, ...interface{})
	Errorf(string, ...interface{})
	Warnf(string, ...interface{})

	ChildLogger(tags map[string]interface{}) Logger
}

var (
	logger   Logger
	loggerMu sync.Mutex
)

// SetLogLevel sets the level of the default logger by name ("debug", "info", ...).
func SetLogLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}

	lg, ok := GetLogger().(*defaultLogger)
	if !ok {
		return nil
	}
	lg.Entry.Logger.SetLevel(lvl)
	return nil
}

// SetLogOutput redirects the default logger.
func SetLogOutput(w io.Writer) {
	if lg, ok := GetLogger().(*defaultLogger); ok {
		lg.Entry.Logger.SetOutput(w)
	}
}

func SetLogger(l Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

func GetLogger() Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if logger == nil {
		logger = newDefaultLogger(os.Stderr)
	}
	return logger
}

// ComponentLogger returns a child of l (or of the default logger when l is
// nil) tagged with the component name.
func ComponentLogger(l Logger, name string) Logger {
	if l == nil {
		l = GetLogger()
	}
	return l.ChildLogger(map[string]interface{}{"component": name})
}

type defaultLogger struct {
	*logrus.Entry
}

func newDefaultLogger(out io.Writer) Logger {
	l := logrus.New()
	l.Formatter = &logrus.TextFormatter{DisableTimestamp: true}
	l.Level = logrus.InfoLevel
	l.Out = out

	return &defaultLogger{Entry: logrus.NewEntry(l)}
}

func (d *defaultLogger) ChildLogger(ff map[string]interface{}) Logger {
	return &defaultLogger{d.Entry.WithFields(ff)}
}
