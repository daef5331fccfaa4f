// Package controller glues the lamp session to the MQTT broker.
//
// The controller discovers the device on the LAN (retrying every 30
// seconds until one matching the optional id/model filters answers),
// owns its TCP session, and relays in both directions:
//
//   - smart-home-system/yeelight/power/set, .../brightness/set and
//     .../toggle become device commands. Invalid payloads are logged and
//     dropped, never sent to the device.
//   - .../power/get and .../brightness/get issue a get_prop and republish
//     the answer retained on the base topic.
//   - Device-originated "props" notifications fan out to the same
//     retained topics.
//
// When the device session dies the controller drops it and runs
// discovery again; device I/O never stops the relay.
package controller
