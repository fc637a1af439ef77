// Package log provides the package-scoped structured loggers used across the
// module.
package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

var root = func() *logrus.Logger {
	log := logrus.New()
	log.Formatter = &logrus.TextFormatter{ForceColors: true,
		DisableTimestamp:       true,
		DisableLevelTruncation: true}
	return log
}()

// Log is a logrus entry carrying the package field.
type Log struct {
	*logrus.Entry
}

// New returns a logger tagged with pkg. All loggers share one root, so
// SetDebug and SetOutput apply to loggers created before the call as well.
func New(pkg string) Log {
	return Log{Entry: root.WithField("pkg", pkg)}
}

// SetDebug toggles debug level output.
func SetDebug(on bool) {
	if on {
		root.SetLevel(logrus.DebugLevel)
		return
	}
	root.SetLevel(logrus.InfoLevel)
}

// SetOutput redirects all loggers to w.
func SetOutput(w io.Writer) {
	root.SetOutput(w)
}
