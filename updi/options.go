package updi

import (
	"io"

	"github.com/sirupsen/logrus"
)

type config struct {
	log logrus.FieldLogger
}

func defaultConfig() *config {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &config{log: log}
}

// Option configures a session opened with Open.
type Option func(*config)

// WithLogger routes the driver's protocol and progress logging to the
// given logger. Without it the session stays silent.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *config) {
		c.log = log
	}
}
