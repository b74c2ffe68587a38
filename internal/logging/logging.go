// Package logging builds the logger handle handed to every handler.
package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing to stdout. The VERBOSE environment variable
// switches it to debug level.
func New() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if strings.EqualFold(os.Getenv("VERBOSE"), "true") {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}
