// The yeelight-controller daemon owns the lamp: it discovers the device
// on the LAN, keeps its TCP session alive and relays state between the
// device and the MQTT broker.
//
// Configuration comes from the environment:
//
//	MQTT_SERVER_URI  broker URI, e.g. tcp://127.0.0.1:1883 (required)
//	MQTT_USERNAME    broker credentials (optional)
//	MQTT_PASSWORD
//	YEELIGHT_ID      only control the device with this id (optional)
//	YEELIGHT_MODEL   only control devices of this model (optional)
//	LOG_LEVEL        logrus level, default info
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tj-smith47/yeelight-go/controller"
	"github.com/tj-smith47/yeelight-go/discovery"
	"github.com/tj-smith47/yeelight-go/mqtt"
)

const clientID = "yeelight-controller"

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

	filters := discovery.Filters{
		ID:    os.Getenv("YEELIGHT_ID"),
		Model: os.Getenv("YEELIGHT_MODEL"),
	}

	ctrl := controller.New(client, filters, controller.WithLogger(log))

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return ctrl.Run(ctx)
	})

	log.Info("Starting yeelight controller")
	if err := group.Wait(); err != nil && ctx.Err() == nil {
		log.WithError(err).Fatal("Controller stopped")
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
