package bridge

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
)

// fakeMessenger is an in-memory Messenger recording publishes and
// serving scripted Get replies.
type fakeMessenger struct {
	mu        sync.Mutex
	handlers  map[string]func(topic string, payload []byte)
	publishes map[string][]string
	replies   map[string]string
	getErr    error
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{
		handlers:  make(map[string]func(topic string, payload []byte)),
		publishes: make(map[string][]string),
		replies:   make(map[string]string),
	}
}

func (f *fakeMessenger) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[topic] = handler
	return nil
}

func (f *fakeMessenger) Publish(topic, payload string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publishes[topic] = append(f.publishes[topic], payload)
}

func (f *fakeMessenger) Get(_ context.Context, _, replyTopic string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", f.getErr
	}
	return f.replies[replyTopic], nil
}

func (f *fakeMessenger) deliver(topic, payload string) {
	f.mu.Lock()
	handler := f.handlers[topic]
	f.mu.Unlock()
	if handler != nil {
		handler(topic, []byte(payload))
	}
}

func (f *fakeMessenger) published(topic string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.publishes[topic]
}

func newTestLightbulb(t *testing.T) (*Lightbulb, *fakeMessenger) {
	t.Helper()

	messenger := newFakeMessenger()
	log := logrus.New()

	lb, err := NewLightbulb("yeelight", messenger, log)
	if err != nil {
		t.Fatalf("NewLightbulb() error = %v", err)
	}
	return lb, messenger
}

func TestLightbulb_SubscribesStateTopics(t *testing.T) {
	_, messenger := newTestLightbulb(t)

	for _, topic := range []string{
		"smart-home-system/yeelight/power",
		"smart-home-system/yeelight/brightness",
	} {
		if messenger.handlers[topic] == nil {
			t.Errorf("no subscription on %s", topic)
		}
	}
}

func TestLightbulb_HomeKitWrite_PublishesSet(t *testing.T) {
	lb, messenger := newTestLightbulb(t)

	lb.updatePower(true)
	lb.updatePower(false)
	lb.updateBrightness(40)

	if got := messenger.published("smart-home-system/yeelight/power/set"); len(got) != 2 || got[0] != "on" || got[1] != "off" {
		t.Errorf("power/set publishes = %v, want [on off]", got)
	}
	if got := messenger.published("smart-home-system/yeelight/brightness/set"); len(got) != 1 || got[0] != "40" {
		t.Errorf("brightness/set publishes = %v, want [40]", got)
	}
}

func TestLightbulb_HomeKitRead_RoundTrip(t *testing.T) {
	lb, messenger := newTestLightbulb(t)
	messenger.replies["smart-home-system/yeelight/power"] = "on"
	messenger.replies["smart-home-system/yeelight/brightness"] = "70"

	value, code := lb.readPower(nil)
	if code != 0 {
		t.Fatalf("readPower() code = %d, want 0", code)
	}
	if value != true {
		t.Errorf("readPower() = %v, want true", value)
	}

	value, code = lb.readBrightness(nil)
	if code != 0 {
		t.Fatalf("readBrightness() code = %d, want 0", code)
	}
	if value != 70 {
		t.Errorf("readBrightness() = %v, want 70", value)
	}
}

func TestLightbulb_HomeKitRead_FallsBackToCache(t *testing.T) {
	lb, messenger := newTestLightbulb(t)

	// Seed the cache through device-originated state messages, then
	// make the round-trip fail.
	messenger.deliver("smart-home-system/yeelight/power", "on")
	messenger.deliver("smart-home-system/yeelight/brightness", "55")
	messenger.getErr = errors.New("timed out waiting for reply")

	value, code := lb.readPower(nil)
	if code != 0 || value != true {
		t.Errorf("readPower() = %v, %d; want cached true, 0", value, code)
	}

	value, code = lb.readBrightness(nil)
	if code != 0 || value != 55 {
		t.Errorf("readBrightness() = %v, %d; want cached 55, 0", value, code)
	}
}

func TestLightbulb_StateMessage_UpdatesCharacteristics(t *testing.T) {
	lb, messenger := newTestLightbulb(t)

	messenger.deliver("smart-home-system/yeelight/power", "on")
	if !lb.acc.Lightbulb.On.Value() {
		t.Error("On characteristic not set after power state message")
	}

	messenger.deliver("smart-home-system/yeelight/brightness", "80")
	if got := lb.brightness.Value(); got != 80 {
		t.Errorf("Brightness characteristic = %d, want 80", got)
	}
}

func TestLightbulb_InvalidStateMessage_Ignored(t *testing.T) {
	lb, messenger := newTestLightbulb(t)

	messenger.deliver("smart-home-system/yeelight/power", "on")
	messenger.deliver("smart-home-system/yeelight/power", "maybe")
	messenger.deliver("smart-home-system/yeelight/brightness", "bright")

	if !lb.acc.Lightbulb.On.Value() {
		t.Error("invalid payload clobbered the power state")
	}
	if got := lb.cachedPower(); got.Bool() != true {
		t.Errorf("cached power = %v, want on", got)
	}
}
