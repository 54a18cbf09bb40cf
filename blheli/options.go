package blheli

import "github.com/sirupsen/logrus"

// DefaultMaxBlockLines bounds how many records a settings block may span.
const DefaultMaxBlockLines = 10

type options struct {
	log             logrus.FieldLogger
	strictChecksums bool
	maxBlockLines   int
	registry        *Registry
	verify          bool
}

type Option func(*options)

func defaultOptions() options {
	return options{
		log:           logrus.StandardLogger(),
		maxBlockLines: DefaultMaxBlockLines,
		registry:      DefaultLayout,
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithStrictChecksums makes a record checksum mismatch, or a malformed line
// ahead of the settings block, fatal when reading. By default both are
// logged and reading continues.
func WithStrictChecksums() Option {
	return func(o *options) {
		o.strictChecksums = true
	}
}

func WithMaxBlockLines(n int) Option {
	return func(o *options) {
		o.maxBlockLines = n
	}
}

// WithRegistry replaces DefaultLayout.
func WithRegistry(r *Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithVerify re-parses the reassembled file before it is written and checks
// that the settings bytes landed at the start address.
func WithVerify() Option {
	return func(o *options) {
		o.verify = true
	}
}
