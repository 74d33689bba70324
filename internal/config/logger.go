package config

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// LogFileName is the log file used while a session owns the terminal.
const LogFileName = "neko.log"

// NewLogger returns a text logger at the configured level writing to w.
func (c *Config) NewLogger(w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}

// OpenLog opens the session log file for appending. The caller closes it.
func (c *Config) OpenLog() (*os.File, error) {
	if err := os.MkdirAll(c.Root, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(c.Root, LogFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
