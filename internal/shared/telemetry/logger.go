package telemetry

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	mu     sync.RWMutex
	logger = New(os.Stdout, logrus.InfoLevel)
)

// New builds a JSON logger writing one object per line with ts/level/msg keys.
func New(out io.Writer, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(level)
	l.SetFormatter(utcFormatter{inner: &logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "ts",
			logrus.FieldKeyMsg:  "msg",
		},
	}})
	return l
}

// Configure sets the process log level, e.g. "debug" or "warn".
func Configure(level string) error {
	if strings.TrimSpace(level) == "" {
		return nil
	}
	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	Logger().SetLevel(parsed)
	return nil
}

// Logger returns the process logger.
func Logger() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// SetLogger swaps the process logger and returns a func restoring the previous one.
func SetLogger(l *logrus.Logger) (restore func()) {
	mu.Lock()
	prev := logger
	logger = l
	mu.Unlock()
	return func() {
		mu.Lock()
		logger = prev
		mu.Unlock()
	}
}

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	Logger().WithFields(logrus.Fields(fields)).Info(msg)
}

// Warn writes a warn-level log line with the given fields.
func Warn(msg string, fields map[string]any) {
	Logger().WithFields(logrus.Fields(fields)).Warn(msg)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	Logger().WithFields(logrus.Fields(fields)).Error(msg)
}

type utcFormatter struct {
	inner logrus.Formatter
}

func (f utcFormatter) Format(e *logrus.Entry) ([]byte, error) {
	e.Time = e.Time.UTC()
	return f.inner.Format(e)
}
