package app

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// setupLogging routes logging to the given file, or discards it entirely.
// The TUI owns stdout and stderr, so there is no console fallback.
func setupLogging(path string) error {
	logrus.SetOutput(io.Discard)
	if path == "" {
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logrus.SetOutput(f)
	logrus.SetLevel(logrus.DebugLevel)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}
