package bridge

import (
	"context"
	"fmt"

	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	"github.com/sirupsen/logrus"

	"github.com/tj-smith47/yeelight-go/mqtt"
)

// Pin is the HomeKit setup code (111-22-333) paired clients must enter.
const Pin = "11122333"

// DefaultStorageDir is where the HAP library keeps pairings and the
// bridge identity when no directory is configured.
const DefaultStorageDir = "./db"

// Bridge is the HomeKit face of the system: a HAP bridge accessory
// fronting the MQTT-backed lamp.
//
// Pairing state, the bridge's device id and its long-term keys live in a
// file store owned entirely by the HAP library.
type Bridge struct {
	server *hap.Server
}

// New assembles the bridge and its lamp accessory. The storageDir holds
// the HAP library's persisted state.
func New(client *mqtt.Client, storageDir string, log *logrus.Logger) (*Bridge, error) {
	if storageDir == "" {
		storageDir = DefaultStorageDir
	}

	bridgeAcc := accessory.NewBridge(accessory.Info{
		Name: "smart-home-system bridge",
	})

	lamp, err := NewLightbulb("yeelight", client, log)
	if err != nil {
		return nil, fmt.Errorf("failed to set up lamp accessory: %w", err)
	}

	server, err := hap.NewServer(hap.NewFsStore(storageDir), bridgeAcc.A, lamp.Accessory())
	if err != nil {
		return nil, fmt.Errorf("failed to create HAP server: %w", err)
	}
	server.Pin = Pin

	return &Bridge{server: server}, nil
}

// ListenAndServe runs the HAP server until the context is canceled.
func (b *Bridge) ListenAndServe(ctx context.Context) error {
	return b.server.ListenAndServe(ctx)
}
