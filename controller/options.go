package controller

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Option is a function that configures a controller.
type Option func(*options)

// options holds configuration for a controller.
type options struct {
	log                *logrus.Logger
	discoveryTimeout   time.Duration
	retryInterval      time.Duration
	notificationBuffer int
}

// defaultOptions returns a default options struct.
func defaultOptions() *options {
	return &options{
		log:                logrus.StandardLogger(),
		discoveryTimeout:   3 * time.Second,
		retryInterval:      30 * time.Second,
		notificationBuffer: 8,
	}
}

// WithDiscoveryTimeout sets the window of a single discovery probe.
// Default is 3 seconds.
func WithDiscoveryTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.discoveryTimeout = timeout
	}
}

// WithRetryInterval sets the pause between discovery attempts when no
// matching device answers. Default is 30 seconds.
func WithRetryInterval(interval time.Duration) Option {
	return func(o *options) {
		o.retryInterval = interval
	}
}

// WithNotificationBuffer sets the capacity of the notification channel
// handed to the session. Default is 8.
func WithNotificationBuffer(n int) Option {
	return func(o *options) {
		o.notificationBuffer = n
	}
}

// WithLogger sets the controller's logger. Defaults to the logrus
// standard logger.
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
