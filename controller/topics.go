package controller

// MQTT topic map of the lamp endpoint. The set/get/toggle topics are
// inbound commands; the base power and brightness topics carry the
// current state, published retained.
const (
	TopicPower         = "smart-home-system/yeelight/power"
	TopicPowerSet      = TopicPower + "/set"
	TopicPowerGet      = TopicPower + "/get"
	TopicBrightness    = "smart-home-system/yeelight/brightness"
	TopicBrightnessSet = TopicBrightness + "/set"
	TopicBrightnessGet = TopicBrightness + "/get"
	TopicToggle        = "smart-home-system/yeelight/toggle"
)
