package logger

import (
	"os"

	"github.com/1F47E/go-framereel/pkg/config"
	"github.com/sirupsen/logrus"
)

var Log = newLogger()

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		ForceColors:      true,
		DisableTimestamp: true,
	})

	if os.Getenv(config.EnvDebug) == "1" {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}

	return log
}

// SetDebug switches the global logger to debug level, same as DEBUG=1.
func SetDebug() {
	Log.SetLevel(logrus.DebugLevel)
}

// SetQuiet keeps only warnings and errors.
func SetQuiet() {
	Log.SetLevel(logrus.WarnLevel)
}
