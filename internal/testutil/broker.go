package testutil

import (
	"sync"
	"time"
)

// Publish records one message published through the fake broker.
type Publish struct {
	Topic    string
	Payload  string
	Retained bool
}

// Broker is an in-memory stand-in for the MQTT client: it records
// publishes and lets tests inject inbound messages into subscribed
// handlers.
type Broker struct {
	mu        sync.Mutex
	handlers  map[string]func(topic string, payload []byte)
	publishes []Publish
}

// NewBroker creates an empty fake broker.
func NewBroker() *Broker {
	return &Broker{
		handlers: make(map[string]func(topic string, payload []byte)),
	}
}

// Subscribe registers a handler for a topic.
func (b *Broker) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = handler
	return nil
}

// PublishRetained records a retained publish.
func (b *Broker) PublishRetained(topic, payload string) {
	b.record(Publish{Topic: topic, Payload: payload, Retained: true})
}

// Publish records a plain publish.
func (b *Broker) Publish(topic, payload string) {
	b.record(Publish{Topic: topic, Payload: payload})
}

func (b *Broker) record(p Publish) {
	b.mu.Lock()
	b.publishes = append(b.publishes, p)
	b.mu.Unlock()
}

// Deliver invokes the handler subscribed to topic, as if the broker had
// routed an inbound message. Delivery is synchronous.
func (b *Broker) Deliver(topic, payload string) {
	b.mu.Lock()
	handler := b.handlers[topic]
	b.mu.Unlock()

	if handler != nil {
		handler(topic, []byte(payload))
	}
}

// Publishes returns everything published so far.
func (b *Broker) Publishes() []Publish {
	b.mu.Lock()
	defer b.mu.Unlock()
	publishes := make([]Publish, len(b.publishes))
	copy(publishes, b.publishes)
	return publishes
}

// LastOn returns the most recent publish on a topic.
func (b *Broker) LastOn(topic string) (Publish, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.publishes) - 1; i >= 0; i-- {
		if b.publishes[i].Topic == topic {
			return b.publishes[i], true
		}
	}
	return Publish{}, false
}

// WaitForPublish polls until something is published on topic or the
// timeout passes.
func (b *Broker) WaitForPublish(topic string, timeout time.Duration) (Publish, bool) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if p, ok := b.LastOn(topic); ok {
			return p, true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return Publish{}, false
}
