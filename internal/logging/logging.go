// Package logging sets up the logger of the daemon.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/telekom-mms/portal-autologin/internal/daemoncfg"
)

// openFile is os.OpenFile for testing.
var openFile = os.OpenFile

// nopCloser is a closer that does nothing.
type nopCloser struct{}

// Close does nothing.
func (nopCloser) Close() error { return nil }

// New returns a new logger configured with config that writes to console
// and, if set, appends to the log file in config. The returned closer closes
// the log file.
func New(config *daemoncfg.Logging, console io.Writer) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()

	// log level
	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		return nil, nil, err
	}
	logger.SetLevel(level)

	// log format
	switch config.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	// log outputs
	if config.File == "" {
		logger.SetOutput(console)
		return logger, nopCloser{}, nil
	}
	f, err := openFile(config.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return nil, nil, err
	}
	logger.SetOutput(io.MultiWriter(f, console))

	return logger, f, nil
}
