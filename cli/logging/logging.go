// Package logging builds the process logger from configuration.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/petal-labs/bedrockchat/cli/config"
)

// New returns a logger configured from cfg. Invalid levels fall back to
// info and unwritable log files fall back to stderr, each with a warning.
// Close the returned io.Closer when the logger writes to a file.
func New(cfg config.LoggingConfig, stderr io.Writer) (*logrus.Logger, io.Closer) {
	log := logrus.New()
	log.SetOutput(stderr)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		log.Warnf("Invalid log level '%s', using 'info' instead. Error: %v", cfg.Level, err)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	var closer io.Closer = nopCloser{}
	switch strings.ToLower(cfg.Output) {
	case "", "stderr":
	case "stdout":
		log.SetOutput(os.Stdout)
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			log.Warnf("Failed to open log file '%s', using 'stderr' instead. Error: %v", cfg.Output, err)
		} else {
			log.SetOutput(file)
			closer = file
		}
	}

	return log, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
