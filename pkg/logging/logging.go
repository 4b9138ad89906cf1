package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Setup configures the global logger. With a file path the structured JSON
// stream is teed to the file while stderr keeps it too; without one, plain
// text goes to stderr only.
func Setup(level, filePath string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)

	if filePath == "" {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logrus.SetOutput(os.Stderr)
		return
	}

	logrus.SetFormatter(&logrus.JSONFormatter{})
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		logrus.SetOutput(os.Stderr)
		logrus.WithError(err).Error("could not open log file")
		return
	}
	logrus.SetOutput(io.MultiWriter(os.Stderr, file))
}
