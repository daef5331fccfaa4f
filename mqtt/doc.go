// Package mqtt wraps the paho MQTT client for the controller and the
// HomeKit bridge: topic-keyed subscriber callbacks, QoS 1 fire-and-forget
// publishes (optionally retained), and a request/response helper for the
// <topic>/get convention both daemons share.
//
// The Get helper publishes an empty payload on a get topic and awaits the
// answer the controller publishes on the base topic:
//
//	power, err := client.Get(ctx,
//		"smart-home-system/yeelight/power/get",
//		"smart-home-system/yeelight/power")
//
// Replies are correlated purely by topic, so only one Get per reply topic
// can be outstanding; a newer Get displaces an older one.
package mqtt
