package flasher

import (
	"io"

	"github.com/sirupsen/logrus"
	"zappem.net/pub/debug/xxd"
)

type config struct {
	log      logrus.FieldLogger
	progress ProgressCallback
	data     DataCallback
}

func defaultConfig() *config {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &config{
		log: log,
		data: func(address uint32, data []byte) {
			xxd.Print(int(address), data)
		},
	}
}

// Option is a functional option for configuring the Programmer.
type Option func(*config)

// WithLogger routes the programmer's logging to the given logger. Without
// it the programmer stays silent.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *config) {
		c.log = log
	}
}

// WithProgressCallback sets a callback reporting each phase of a run.
//
// Example:
//
//	prog := flasher.New(sess,
//	    flasher.WithProgressCallback(func(p flasher.Phase) {
//	        fmt.Printf("-> %s\n", p)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *config) {
		c.progress = callback
	}
}

// WithDataCallback sets the sink for memory contents produced by direct
// reads and write readbacks. The default prints a hex dump to stdout.
func WithDataCallback(callback DataCallback) Option {
	return func(c *config) {
		c.data = callback
	}
}
