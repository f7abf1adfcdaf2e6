package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is a small chainable wrapper over logrus. Chained calls share the
// underlying entry, so loggers are cheap to derive per action.
type Logger struct {
	entry *logrus.Entry
}

func New(level string) (Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return Logger{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05Z07:00"})

	hostname, _ := os.Hostname()
	return Logger{entry: l.WithField("hostname", hostname)}, nil
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return Logger{entry: logrus.NewEntry(l)}
}

func (l Logger) Action(action string) Logger {
	return Logger{entry: l.entry.WithField("action", action)}
}

// With adds alternating key/value pairs to the entry.
func (l Logger) With(args ...any) Logger {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		fields[key] = args[i+1]
	}
	return Logger{entry: l.entry.WithFields(fields)}
}

func (l Logger) Debug(msg string) { l.entry.Debug(msg) }
func (l Logger) Info(msg string)  { l.entry.Info(msg) }
func (l Logger) Warn(msg string)  { l.entry.Warn(msg) }

func (l Logger) Error(msg string, err error) {
	if err != nil {
		l.entry.WithError(err).Error(msg)
		return
	}
	l.entry.Error(msg)
}
