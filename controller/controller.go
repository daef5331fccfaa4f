package controller

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/tj-smith47/yeelight-go/discovery"
	"github.com/tj-smith47/yeelight-go/yeelight"
)

// ErrNoDevice is the per-attempt failure of the discovery loop: the
// window elapsed without an answer matching the filters.
var ErrNoDevice = errors.New("no matching yeelight device found")

// Broker is the slice of the MQTT client the controller needs. It is
// satisfied by *mqtt.Client.
type Broker interface {
	Subscribe(topic string, handler func(topic string, payload []byte)) error
	PublishRetained(topic, payload string)
}

// Controller owns the lamp session and relays between it and the broker:
// inbound set/get/toggle topics become device commands, device
// notifications and get results become retained state publishes.
type Controller struct {
	broker  Broker
	filters discovery.Filters
	log     *logrus.Logger

	discoveryTimeout   time.Duration
	retryInterval      time.Duration
	notificationBuffer int

	ctx context.Context

	session *yeelight.Session
	mu      sync.Mutex
}

// New creates a controller publishing through broker, controlling the
// first discovered device that matches filters.
func New(broker Broker, filters discovery.Filters, opts ...Option) *Controller {
	options := defaultOptions()
	applyOptions(options, opts)

	return &Controller{
		broker:             broker,
		filters:            filters,
		log:                options.log,
		discoveryTimeout:   options.discoveryTimeout,
		retryInterval:      options.retryInterval,
		notificationBuffer: options.notificationBuffer,
	}
}

// Run discovers the device, opens its session and relays messages until
// the context is canceled. When the session dies the current socket is
// dropped and discovery starts over; device I/O never terminates the
// loop.
func (c *Controller) Run(ctx context.Context) error {
	c.ctx = ctx

	if err := c.subscribe(); err != nil {
		return err
	}

	for {
		device, err := c.findDevice(ctx)
		if err != nil {
			return err
		}

		addr := device.Address()
		c.log.WithFields(logrus.Fields{
			"addr":  addr,
			"model": device.Model,
			"id":    device.ID,
		}).Info("Connecting to yeelight device")

		notifications := make(chan yeelight.Notification, c.notificationBuffer)
		session, err := yeelight.Open(addr, notifications, yeelight.WithLogger(c.log))
		if err != nil {
			c.log.WithError(err).WithField("addr", addr).Warn("Failed to connect to yeelight device")
			select {
			case <-time.After(c.retryInterval):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		c.setSession(session)
		c.log.Info("Connected to yeelight device")

		go c.pumpNotifications(notifications, session.Done())

		select {
		case <-ctx.Done():
			c.setSession(nil)
			session.Close()
			return ctx.Err()
		case <-session.Done():
			c.setSession(nil)
			if err := session.Err(); err != nil {
				c.log.WithError(err).Warn("Yeelight session died, rediscovering")
			} else {
				c.log.Warn("Yeelight session closed, rediscovering")
			}
		}
	}
}

// subscribe registers the five inbound topics.
func (c *Controller) subscribe() error {
	for topic, handler := range map[string]func(string, []byte){
		TopicPowerSet:      c.handlePowerSet,
		TopicBrightnessSet: c.handleBrightnessSet,
		TopicToggle:        c.handleToggle,
		TopicPowerGet:      c.handlePowerGet,
		TopicBrightnessGet: c.handleBrightnessGet,
	} {
		c.log.WithField("topic", topic).Info("Subscribing to mqtt topic")
		if err := c.broker.Subscribe(topic, handler); err != nil {
			return fmt.Errorf("failed to subscribe controller topics: %w", err)
		}
	}
	return nil
}

// findDevice runs discovery until a device matching the filters answers,
// pausing retryInterval between attempts.
func (c *Controller) findDevice(ctx context.Context) (discovery.Response, error) {
	var device discovery.Response

	attempt := func() error {
		responses, err := discovery.Discover(c.discoveryTimeout)
		if err != nil {
			return err
		}
		found, ok := c.filters.First(responses)
		if !ok {
			return ErrNoDevice
		}
		device = found
		return nil
	}

	policy := backoff.WithContext(backoff.NewConstantBackOff(c.retryInterval), ctx)
	notify := func(err error, wait time.Duration) {
		c.log.WithError(err).Warnf("Yeelight discovery failed, retrying in %s", wait)
	}

	if err := backoff.RetryNotify(attempt, policy, notify); err != nil {
		return discovery.Response{}, err
	}
	return device, nil
}

func (c *Controller) setSession(s *yeelight.Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

func (c *Controller) currentSession() *yeelight.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// send issues a method on the current session, if any, and returns a
// successful response. Failures are logged, not propagated: a bad MQTT
// message or a device hiccup must not take the relay down.
func (c *Controller) send(topic string, m yeelight.Method) (*yeelight.Response, bool) {
	session := c.currentSession()
	if session == nil {
		c.log.WithField("topic", topic).Warn("No yeelight session, dropping command")
		return nil, false
	}

	resp, err := session.Send(c.ctx, m)
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{
			"topic":  topic,
			"method": m.Name(),
		}).Error("Failed to send command to yeelight device")
		return nil, false
	}
	if resp.IsError() {
		c.log.WithError(resp.Error).WithFields(logrus.Fields{
			"topic":  topic,
			"method": m.Name(),
		}).Error("Yeelight device rejected command")
		return nil, false
	}
	return resp, true
}

func (c *Controller) handlePowerSet(topic string, payload []byte) {
	power, err := yeelight.ParsePower(string(payload))
	if err != nil {
		c.logInvalidPayload(topic, payload, err)
		return
	}

	c.log.WithField("topic", topic).Infof("Setting yeelight device power to %s", power)
	c.send(topic, yeelight.SetPower(power))
}

func (c *Controller) handleBrightnessSet(topic string, payload []byte) {
	level, err := strconv.Atoi(strings.TrimSpace(string(payload)))
	if err != nil {
		c.logInvalidPayload(topic, payload, err)
		return
	}
	level = clampBrightness(level)

	c.log.WithField("topic", topic).Infof("Setting yeelight device brightness to %d", level)
	c.send(topic, yeelight.SetBright(level))
}

func (c *Controller) handleToggle(topic string, _ []byte) {
	c.log.WithField("topic", topic).Info("Toggling yeelight device")
	c.send(topic, yeelight.Toggle())
}

func (c *Controller) handlePowerGet(topic string, _ []byte) {
	resp, ok := c.send(topic, yeelight.GetProp("power"))
	if !ok || len(resp.Result) == 0 {
		return
	}

	power, err := yeelight.ParsePower(resp.Result[0])
	if err != nil {
		c.log.WithError(err).WithField("topic", topic).Warn("Unexpected power value from yeelight device")
		return
	}
	c.publishPower(power)
}

func (c *Controller) handleBrightnessGet(topic string, _ []byte) {
	resp, ok := c.send(topic, yeelight.GetProp("bright"))
	if !ok || len(resp.Result) == 0 {
		return
	}

	level, err := strconv.Atoi(resp.Result[0])
	if err != nil {
		c.log.WithError(err).WithField("topic", topic).Warn("Unexpected brightness value from yeelight device")
		return
	}
	c.publishBrightness(level)
}

// pumpNotifications relays device-originated property changes to the
// retained state topics until the session ends.
func (c *Controller) pumpNotifications(notifications <-chan yeelight.Notification, done <-chan struct{}) {
	for {
		select {
		case n := <-notifications:
			c.handleNotification(n)
		case <-done:
			return
		}
	}
}

func (c *Controller) handleNotification(n yeelight.Notification) {
	c.log.WithField("method", n.Method).Debug("Received notification from yeelight device")

	for key, value := range n.Params {
		switch key {
		case "power":
			s, ok := value.(string)
			if !ok {
				c.log.Warnf("Couldn't parse power value %v from yeelight notification", value)
				continue
			}
			power, err := yeelight.ParsePower(s)
			if err != nil {
				c.log.WithError(err).Warn("Couldn't parse power value from yeelight notification")
				continue
			}
			c.log.Infof("Yeelight device power changed to %s", power)
			c.publishPower(power)
		case "bright":
			level, ok := brightnessValue(value)
			if !ok {
				c.log.Warnf("Couldn't parse brightness value %v from yeelight notification", value)
				continue
			}
			c.log.Infof("Yeelight device brightness changed to %d", level)
			c.publishBrightness(level)
		}
	}
}

func (c *Controller) publishPower(p yeelight.Power) {
	c.broker.PublishRetained(TopicPower, p.String())
}

func (c *Controller) publishBrightness(level int) {
	c.broker.PublishRetained(TopicBrightness, strconv.Itoa(level))
}

func (c *Controller) logInvalidPayload(topic string, payload []byte, err error) {
	c.log.WithError(err).WithFields(logrus.Fields{
		"topic":   topic,
		"payload": string(payload),
	}).Error("Received invalid payload")
}

// clampBrightness clamps a requested level to the [1,100] range the
// device accepts.
func clampBrightness(level int) int {
	if level < 1 {
		return 1
	}
	if level > 100 {
		return 100
	}
	return level
}

// brightnessValue extracts a brightness level from a notification value,
// which the device sends either as a JSON number or a quoted integer.
func brightnessValue(value any) (int, bool) {
	switch v := value.(type) {
	case float64:
		return int(v), true
	case string:
		level, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return level, true
	default:
		return 0, false
	}
}
