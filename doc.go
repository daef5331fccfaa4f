// Package yeelightgo bridges a Yeelight LAN lamp to MQTT and Apple
// HomeKit.
//
// # Overview
//
// The system is two long-lived daemons sharing one MQTT broker:
//
//   - yeelight-controller discovers the lamp on the LAN, owns its TCP
//     session and relays between the device and the MQTT topic map.
//   - homekit-mqtt-bridge runs a HAP server exposing the lamp to
//     HomeKit, translating characteristic reads and writes into MQTT
//     get/set messages.
//
// # Quick Start
//
// Control a lamp directly:
//
//	devices, err := discovery.Discover(3 * time.Second)
//	session, err := yeelight.Open(devices[0].Address(), nil)
//	resp, err := session.Send(ctx, yeelight.SetPower(yeelight.PowerOn))
//
// # Package Organization
//
//   - yeelight: the LAN protocol — wire codec and the multiplexing
//     device session
//   - discovery: SSDP-style UDP discovery and device filters
//   - mqtt: paho wrapper with subscribe callbacks and the get/reply
//     helper
//   - controller: the MQTT↔device relay loop
//   - bridge: the HomeKit accessory layer
//   - cmd/yeelight-controller, cmd/homekit-mqtt-bridge: the daemons
package yeelightgo
