package mqtt

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Option is a function that configures a client.
type Option func(*options)

// options holds configuration for a client.
type options struct {
	log            *logrus.Logger
	connectTimeout time.Duration
	getTimeout     time.Duration
	keepAlive      time.Duration
	qos            byte
}

// defaultOptions returns a default options struct.
func defaultOptions() *options {
	return &options{
		log:            logrus.StandardLogger(),
		connectTimeout: 10 * time.Second,
		getTimeout:     5 * time.Second,
		keepAlive:      20 * time.Second,
		qos:            1,
	}
}

// WithConnectTimeout sets the broker connect timeout. Default is 10 seconds.
func WithConnectTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.connectTimeout = timeout
	}
}

// WithGetTimeout sets how long Get waits for a reply. Default is 5 seconds.
func WithGetTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.getTimeout = timeout
	}
}

// WithKeepAlive sets the MQTT keep-alive interval. Default is 20 seconds.
func WithKeepAlive(interval time.Duration) Option {
	return func(o *options) {
		o.keepAlive = interval
	}
}

// WithQoS sets the QoS level used for subscriptions and publishes.
// Default is 1 (at-least-once).
func WithQoS(qos byte) Option {
	return func(o *options) {
		o.qos = qos
	}
}

// WithLogger sets the logger used for connection diagnostics. Defaults to
// the logrus standard logger.
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
