// Package log builds the logrus entry shared by the CLI and the services it wires.
package log

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns an entry writing text logs to stderr.
func New(version string) *logrus.Entry {
	return NewWithWriter(os.Stderr, version)
}

// NewWithWriter returns an entry writing text logs to w.
func NewWithWriter(w io.Writer, version string) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	return logger.WithFields(logrus.Fields{
		"program": "cyclekit",
		"version": version,
	})
}

// SetLevel parses level and applies it. An empty level leaves the current one.
func SetLevel(logE *logrus.Entry, level string) error {
	if level == "" {
		return nil
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse the log level: %w", err)
	}
	logE.Logger.SetLevel(lvl)
	return nil
}

// Discard returns an entry that drops everything. Useful in tests.
func Discard() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

// OrDiscard returns logE, or a discarding entry when logE is nil.
func OrDiscard(logE *logrus.Entry) *logrus.Entry {
	if logE == nil {
		return Discard()
	}
	return logE
}

// WithDatabase tags logE with the database alias an operation runs against.
func WithDatabase(logE *logrus.Entry, database string) *logrus.Entry {
	return OrDiscard(logE).WithField("database", database)
}
