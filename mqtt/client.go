package mqtt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// ErrTimeout is returned by Get when no reply arrives on the reply topic
// within the get timeout.
var ErrTimeout = errors.New("timed out waiting for reply")

// Handler is called with each message arriving on a subscribed topic.
// It is an alias so plain functions and interfaces over them interchange
// freely.
type Handler = func(topic string, payload []byte)

// Config carries the broker connection settings, typically read from the
// environment by the daemons.
type Config struct {
	ServerURI string
	ClientID  string
	Username  string
	Password  string
}

// Client wraps a paho MQTT client with topic-keyed subscriber callbacks
// and a request/response helper for <topic>/get exchanges.
//
// The client is safe for concurrent use by multiple goroutines.
type Client struct {
	client paho.Client
	log    *logrus.Logger
	qos    byte

	getTimeout time.Duration

	handlers   map[string]Handler
	handlersMu sync.RWMutex

	// gets maps a reply topic to the oneshot of the outstanding Get on
	// it. At most one entry per topic; a newer Get overwrites an older
	// one, whose awaiter then runs into its timer.
	gets   map[string]chan string
	getsMu sync.Mutex
}

// Dial connects to the broker and returns a ready client.
//
// The connection keeps itself alive: auto-reconnect is on and all
// registered subscriptions are re-established after a reconnect.
func Dial(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	options := defaultOptions()
	applyOptions(options, opts)

	c := &Client{
		log:        options.log,
		qos:        options.qos,
		getTimeout: options.getTimeout,
		handlers:   make(map[string]Handler),
		gets:       make(map[string]chan string),
	}

	pahoOpts := paho.NewClientOptions().
		AddBroker(cfg.ServerURI).
		SetClientID(cfg.ClientID).
		SetKeepAlive(options.keepAlive).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectTimeout(options.connectTimeout).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			c.log.WithError(err).Warn("Connection to MQTT broker lost")
		})

	if cfg.Username != "" {
		pahoOpts.SetUsername(cfg.Username)
		pahoOpts.SetPassword(cfg.Password)
	}

	c.client = paho.NewClient(pahoOpts)

	token := c.client.Connect()
	if err := waitToken(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker at %s: %w", cfg.ServerURI, err)
	}

	return c, nil
}

// onConnect re-establishes subscriptions after the initial connect and
// every reconnect (the session is clean, so the broker forgets them).
func (c *Client) onConnect(client paho.Client) {
	c.log.Info("Connected to MQTT broker")

	c.handlersMu.RLock()
	topics := make([]string, 0, len(c.handlers))
	for topic := range c.handlers {
		topics = append(topics, topic)
	}
	c.handlersMu.RUnlock()

	for _, topic := range topics {
		token := client.Subscribe(topic, c.qos, c.route)
		token.Wait()
		if err := token.Error(); err != nil {
			c.log.WithError(err).WithField("topic", topic).Error("Failed to resubscribe")
		}
	}
}

// Subscribe registers a callback for a topic and subscribes at the
// client's QoS. Messages claimed by an outstanding Get on the same topic
// bypass the callback.
func (c *Client) Subscribe(topic string, handler Handler) error {
	c.handlersMu.Lock()
	c.handlers[topic] = handler
	c.handlersMu.Unlock()

	token := c.client.Subscribe(topic, c.qos, c.route)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	return nil
}

// Publish sends a payload at the client's QoS, fire-and-forget. Delivery
// failures are logged, not returned.
func (c *Client) Publish(topic, payload string) {
	c.publish(topic, payload, false)
}

// PublishRetained is Publish with the retained flag set, for topics whose
// last value new subscribers should see immediately.
func (c *Client) PublishRetained(topic, payload string) {
	c.publish(topic, payload, true)
}

func (c *Client) publish(topic, payload string, retained bool) {
	token := c.client.Publish(topic, c.qos, retained, payload)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			c.log.WithError(err).WithFields(logrus.Fields{
				"topic":   topic,
				"payload": payload,
			}).Error("Failed to publish")
		}
	}()
}

// Get publishes an empty payload on getTopic and waits for the next
// message on replyTopic, which must already be subscribed (with any
// handler; the reply is intercepted before it).
//
// Only one Get per reply topic is outstanding at a time: a second Get
// overwrites the first, whose caller then observes ErrTimeout.
func (c *Client) Get(ctx context.Context, getTopic, replyTopic string) (string, error) {
	ch := make(chan string, 1)

	c.getsMu.Lock()
	c.gets[replyTopic] = ch
	c.getsMu.Unlock()

	c.Publish(getTopic, "")

	timer := time.NewTimer(c.getTimeout)
	defer timer.Stop()

	select {
	case payload := <-ch:
		return payload, nil
	case <-timer.C:
		c.abandonGet(replyTopic, ch)
		return "", ErrTimeout
	case <-ctx.Done():
		c.abandonGet(replyTopic, ch)
		return "", ctx.Err()
	}
}

// abandonGet removes the get entry if it still belongs to this awaiter
// (a later Get may have replaced it).
func (c *Client) abandonGet(replyTopic string, ch chan string) {
	c.getsMu.Lock()
	if c.gets[replyTopic] == ch {
		delete(c.gets, replyTopic)
	}
	c.getsMu.Unlock()
}

// route is the single entry point for inbound messages.
func (c *Client) route(_ paho.Client, msg paho.Message) {
	c.dispatch(msg.Topic(), msg.Payload())
}

// dispatch first fulfils an outstanding Get on the topic, removing its
// entry; otherwise it invokes the subscriber callback, if any.
func (c *Client) dispatch(topic string, payload []byte) {
	c.getsMu.Lock()
	ch, ok := c.gets[topic]
	if ok {
		delete(c.gets, topic)
	}
	c.getsMu.Unlock()

	if ok {
		ch <- string(payload)
		return
	}

	c.handlersMu.RLock()
	handler := c.handlers[topic]
	c.handlersMu.RUnlock()

	if handler != nil {
		handler(topic, payload)
	}
}

// Close disconnects from the broker after a short quiesce.
func (c *Client) Close() {
	c.client.Disconnect(250)
}

// waitToken waits for a paho token to complete, honoring the context.
func waitToken(ctx context.Context, token paho.Token) error {
	done := make(chan struct{})
	go func() {
		token.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return token.Error()
	}
}
