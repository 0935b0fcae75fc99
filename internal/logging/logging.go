// Package logging holds the process wide structured logger.
package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

const serviceName = "blogpulse"

var (
	logger *logrus.Logger
	// Log is the shared entry every package logs through.
	Log *logrus.Entry
)

// Tests and tools that never call Init still get a usable logger.
func init() {
	Init("info", "text")
}

// Init configures level and formatter. Unknown levels fall back to info.
func Init(level, format string) {
	logger = logrus.New()
	logger.SetOutput(os.Stderr)

	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)

	if strings.EqualFold(strings.TrimSpace(format), "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	Log = logger.WithField("service", serviceName)
}

