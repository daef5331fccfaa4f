// Package bridge exposes the MQTT-backed lamp to Apple HomeKit.
//
// It runs a HAP (HomeKit Accessory Protocol) server with a bridge
// accessory and one lightbulb accessory per lamp. HomeKit interactions
// translate to the lamp's MQTT topics:
//
//   - characteristic writes publish on .../power/set and
//     .../brightness/set
//   - characteristic reads publish on .../power/get (resp. brightness)
//     and await the controller's answer on the base topic, with the last
//     seen value as timeout fallback
//   - retained state topics push device-originated changes into the
//     characteristics so HomeKit stays current
//
// Pairing, commissioning and the persisted bridge identity (setup code
// 111-22-333, stable device id) are owned by the HAP library and its
// file store; this package only supplies the store directory.
package bridge
