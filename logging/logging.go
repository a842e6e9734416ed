// Package logging provides the single shared logrus setup used across
// pocnode, mirroring the teacher's convention of one package-level setup
// function consumed by everything downstream (compare config.Load()).
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logrus.Logger configured from level. Unrecognized levels
// (for which logrus.ParseLevel returns an error) fall back to info
// rather than failing startup over a typo in an env var.
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.Out = os.Stderr
	log.Formatter = &logrus.TextFormatter{FullTimestamp: true}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}
