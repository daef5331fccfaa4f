package yeelight

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Option is a function that configures a session.
type Option func(*options)

// options holds configuration for a session.
type options struct {
	log         *logrus.Logger
	dialTimeout time.Duration
	timeout     time.Duration
}

// defaultOptions returns a default options struct.
func defaultOptions() *options {
	return &options{
		log:         logrus.StandardLogger(),
		dialTimeout: 10 * time.Second,
		timeout:     5 * time.Second,
	}
}

// WithTimeout sets the per-command response timeout.
//
// The timer starts when the command is registered for correlation, before
// its bytes hit the wire. Default is 5 seconds.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithDialTimeout sets the TCP connect timeout. Default is 10 seconds.
func WithDialTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.dialTimeout = timeout
	}
}

// WithLogger sets the logger used for stream-level diagnostics such as
// discarded unparseable lines. Defaults to the logrus standard logger.
func WithLogger(log *logrus.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// applyOptions applies option functions to an options struct.
func applyOptions(opts *options, options []Option) {
	for _, opt := range options {
		opt(opts)
	}
}
