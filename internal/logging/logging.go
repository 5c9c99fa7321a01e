// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// Setup logs as JSON to stdout at the given level.
func Setup(level string) error {
	return setup(os.Stdout, level)
}

func setup(out io.Writer, level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("error parsing log level: %w", err)
	}
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(out)
	log.SetLevel(lvl)
	return nil
}
