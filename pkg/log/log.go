// Package log configures the structured logger shared by every boulder
// subcommand. Builds are noisy by nature (phase scripts, analysis
// warnings) so the default level favours a human reading
// a terminal; set BOULDER_DEBUG or --debug to get JSON lines suitable for
// tailing into a log aggregator.
package log

import (
	"io"
	"os"
	"path/filepath"

	"github.com/serpent-go/boulder/pkg/config"
	"github.com/sirupsen/logrus"
)

// NewLogger returns a new logger bound to the build identity.
func NewLogger(cfg *config.AppConfig) *logrus.Entry {
	var base *logrus.Logger
	if cfg.Debug || os.Getenv("BOULDER_DEBUG") == "TRUE" {
		base = newDevelopmentLogger(cfg)
	} else {
		base = newInteractiveLogger()
	}

	return base.WithFields(logrus.Fields{
		"version": cfg.Version,
		"commit":  cfg.Commit,
	})
}

func getLogLevel() logrus.Level {
	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return logrus.DebugLevel
	}
	return level
}

// newDevelopmentLogger writes structured JSON lines to a file under the
// cache directory, leaving the terminal free for phase output.
func newDevelopmentLogger(cfg *config.AppConfig) *logrus.Logger {
	l := logrus.New()
	l.SetLevel(getLogLevel())
	l.Formatter = &logrus.JSONFormatter{}

	path := filepath.Join(cfg.CacheDir, "boulder.log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		l.Out = os.Stderr
		return l
	}
	l.SetOutput(file)
	return l
}

// newInteractiveLogger only surfaces warnings and errors to stderr; phase
// output and progress are rendered separately by the caller.
func newInteractiveLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stderr
	l.SetLevel(logrus.WarnLevel)
	l.Formatter = &logrus.TextFormatter{DisableTimestamp: true}
	return l
}

// Discard is used by tests that don't care about log output.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.Out = io.Discard
	return logrus.NewEntry(l)
}
