package yeelight

import (
	"testing"
	"time"
)

func TestDefaultOptions(t *testing.T) {
	opts := defaultOptions()

	if opts.timeout != 5*time.Second {
		t.Errorf("default response timeout = %s, want 5s", opts.timeout)
	}
	if opts.dialTimeout != 10*time.Second {
		t.Errorf("default dial timeout = %s, want 10s", opts.dialTimeout)
	}
	if opts.log == nil {
		t.Error("default logger is nil")
	}
}

func TestWithTimeout(t *testing.T) {
	opts := defaultOptions()
	applyOptions(opts, []Option{WithTimeout(time.Second)})

	if opts.timeout != time.Second {
		t.Errorf("timeout = %s, want 1s", opts.timeout)
	}
}
