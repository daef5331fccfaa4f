// The homekit-mqtt-bridge daemon exposes the MQTT-backed lamp to Apple
// HomeKit: a HAP bridge accessory plus a lightbulb whose characteristics
// read and write the lamp's MQTT topics.
//
// Configuration comes from the environment:
//
//	MQTT_SERVER_URI  broker URI, e.g. tcp://127.0.0.1:1883 (required)
//	MQTT_USERNAME    broker credentials (optional)
//	MQTT_PASSWORD
//	HAP_STORAGE_DIR  HAP pairing/identity store, default ./db
//	LOG_LEVEL        logrus level, default info
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tj-smith47/yeelight-go/bridge"
	"github.com/tj-smith47/yeelight-go/mqtt"
)

const clientID = "homekit-mqtt-bridge"

func main() {
	log := newLogger()

	serverURI := os.Getenv("MQTT_SERVER_URI")
	if serverURI == "" {
		log.Fatal("No mqtt server uri provided. Set env MQTT_SERVER_URI to the uri of the mqtt server.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Connecting to mqtt server")
	client, err := mqtt.Dial(ctx, mqtt.Config{
		ServerURI: serverURI,
		ClientID:  clientID,
		Username:  os.Getenv("MQTT_USERNAME"),
		Password:  os.Getenv("MQTT_PASSWORD"),
	}, mqtt.WithLogger(log))
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to mqtt server")
	}
	defer client.Close()

	b, err := bridge.New(client, os.Getenv("HAP_STORAGE_DIR"), log)
	if err != nil {
		log.WithError(err).Fatal("Failed to set up HomeKit bridge")
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return b.ListenAndServe(ctx)
	})

	log.Infof("HomeKit bridge running, setup code %s", bridge.Pin)
	if err := group.Wait(); err != nil && ctx.Err() == nil {
		log.WithError(err).Fatal("Bridge stopped")
	}
	log.Info("Shutting down")
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(level)
	}
	return log
}
