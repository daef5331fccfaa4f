package bridge

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"
	"github.com/sirupsen/logrus"

	"github.com/tj-smith47/yeelight-go/yeelight"
)

// topicBase is the prefix every device topic hangs off.
const topicBase = "smart-home-system"

// Messenger is the slice of the MQTT client the accessory needs. It is
// satisfied by *mqtt.Client.
type Messenger interface {
	Subscribe(topic string, handler func(topic string, payload []byte)) error
	Publish(topic, payload string)
	Get(ctx context.Context, getTopic, replyTopic string) (string, error)
}

// Lightbulb exposes one MQTT-backed lamp as a HomeKit lightbulb
// accessory with On and Brightness characteristics.
//
// HomeKit writes publish on the lamp's set topics; HomeKit reads go
// through the broker's get/reply round-trip, falling back to the last
// seen state when the controller does not answer in time. Retained state
// topics keep the cached state (and the characteristics HomeKit watches)
// in sync with device-originated changes.
type Lightbulb struct {
	client Messenger
	log    *logrus.Logger

	acc        *accessory.Lightbulb
	brightness *characteristic.Brightness

	powerTopic         string
	powerSetTopic      string
	powerGetTopic      string
	brightnessTopic    string
	brightnessSetTopic string
	brightnessGetTopic string

	mu    sync.Mutex
	power yeelight.Power
	level int
}

// NewLightbulb builds the accessory for the lamp called name and wires
// its characteristics to the lamp's MQTT topics.
func NewLightbulb(name string, client Messenger, log *logrus.Logger) (*Lightbulb, error) {
	base := topicBase + "/" + name

	l := &Lightbulb{
		client:             client,
		log:                log,
		acc:                accessory.NewLightbulb(accessory.Info{Name: name}),
		brightness:         characteristic.NewBrightness(),
		powerTopic:         base + "/power",
		powerSetTopic:      base + "/power/set",
		powerGetTopic:      base + "/power/get",
		brightnessTopic:    base + "/brightness",
		brightnessSetTopic: base + "/brightness/set",
		brightnessGetTopic: base + "/brightness/get",
		power:              yeelight.PowerOff,
	}

	l.acc.Lightbulb.AddC(l.brightness.C)

	l.acc.Lightbulb.On.OnValueRemoteUpdate(l.updatePower)
	l.acc.Lightbulb.On.ValueRequestFunc = l.readPower
	l.brightness.OnValueRemoteUpdate(l.updateBrightness)
	l.brightness.ValueRequestFunc = l.readBrightness

	if err := l.client.Subscribe(l.powerTopic, l.handlePowerMessage); err != nil {
		return nil, err
	}
	if err := l.client.Subscribe(l.brightnessTopic, l.handleBrightnessMessage); err != nil {
		return nil, err
	}

	return l, nil
}

// Accessory returns the underlying HAP accessory for server registration.
func (l *Lightbulb) Accessory() *accessory.A {
	return l.acc.A
}

// updatePower handles a HomeKit write of the On characteristic.
func (l *Lightbulb) updatePower(on bool) {
	power := yeelight.PowerOff
	if on {
		power = yeelight.PowerOn
	}

	l.log.Infof("HomeKit set %s power to %s", l.acc.Name(), power)
	l.setCachedPower(power)
	l.client.Publish(l.powerSetTopic, power.String())
}

// updateBrightness handles a HomeKit write of the Brightness
// characteristic.
func (l *Lightbulb) updateBrightness(level int) {
	l.log.Infof("HomeKit set %s brightness to %d", l.acc.Name(), level)
	l.setCachedLevel(level)
	l.client.Publish(l.brightnessSetTopic, strconv.Itoa(level))
}

// readPower serves a HomeKit read of the On characteristic through the
// broker round-trip.
func (l *Lightbulb) readPower(_ *http.Request) (any, int) {
	payload, err := l.client.Get(context.Background(), l.powerGetTopic, l.powerTopic)
	if err != nil {
		l.log.WithError(err).Warnf("Falling back to cached %s power state", l.acc.Name())
		return l.cachedPower().Bool(), 0
	}

	power, err := yeelight.ParsePower(payload)
	if err != nil {
		l.log.WithError(err).Warnf("Unexpected power payload %q", payload)
		return l.cachedPower().Bool(), 0
	}

	l.setCachedPower(power)
	return power.Bool(), 0
}

// readBrightness serves a HomeKit read of the Brightness characteristic.
func (l *Lightbulb) readBrightness(_ *http.Request) (any, int) {
	payload, err := l.client.Get(context.Background(), l.brightnessGetTopic, l.brightnessTopic)
	if err != nil {
		l.log.WithError(err).Warnf("Falling back to cached %s brightness", l.acc.Name())
		return l.cachedLevel(), 0
	}

	level, err := strconv.Atoi(payload)
	if err != nil {
		l.log.WithError(err).Warnf("Unexpected brightness payload %q", payload)
		return l.cachedLevel(), 0
	}

	l.setCachedLevel(level)
	return level, 0
}

// handlePowerMessage applies a device-originated power change published
// on the retained state topic.
func (l *Lightbulb) handlePowerMessage(topic string, payload []byte) {
	power, err := yeelight.ParsePower(string(payload))
	if err != nil {
		l.log.WithError(err).WithFields(logrus.Fields{
			"topic":   topic,
			"payload": string(payload),
		}).Error("Received invalid payload")
		return
	}

	l.setCachedPower(power)
	l.acc.Lightbulb.On.SetValue(power.Bool())
}

// handleBrightnessMessage applies a device-originated brightness change.
func (l *Lightbulb) handleBrightnessMessage(topic string, payload []byte) {
	level, err := strconv.Atoi(string(payload))
	if err != nil {
		l.log.WithError(err).WithFields(logrus.Fields{
			"topic":   topic,
			"payload": string(payload),
		}).Error("Received invalid payload")
		return
	}

	l.setCachedLevel(level)
	l.brightness.SetValue(level)
}

func (l *Lightbulb) setCachedPower(p yeelight.Power) {
	l.mu.Lock()
	l.power = p
	l.mu.Unlock()
}

func (l *Lightbulb) cachedPower() yeelight.Power {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.power
}

func (l *Lightbulb) setCachedLevel(level int) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

func (l *Lightbulb) cachedLevel() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}
