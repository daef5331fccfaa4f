package yeelight

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Power is the power state of a lamp as it appears on the wire.
type Power string

// Power states understood by the device.
const (
	PowerOn  Power = "on"
	PowerOff Power = "off"
)

// ParsePower parses a power value from an MQTT payload.
//
// It accepts the spellings "on", "off", "true", "false", "1" and "0",
// case-insensitively. The wire only ever carries "on" or "off".
func ParsePower(s string) (Power, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "1":
		return PowerOn, nil
	case "off", "false", "0":
		return PowerOff, nil
	default:
		return "", fmt.Errorf("invalid power value: %q", s)
	}
}

// Bool reports whether the power state is on.
func (p Power) Bool() bool {
	return p == PowerOn
}

// String returns the wire spelling of the power state.
func (p Power) String() string {
	return string(p)
}

// Method names understood by the device.
const (
	methodGetProp   = "get_prop"
	methodSetBright = "set_bright"
	methodSetPower  = "set_power"
	methodToggle    = "toggle"
)

// Method is a single device invocation: a method name plus its positional
// parameters. Build one with GetProp, SetBright, SetPower or Toggle and
// pass it to Session.Send.
type Method struct {
	name   string
	params []any
}

// GetProp requests the current value of one or more device properties
// (e.g. "power", "bright").
func GetProp(props ...string) Method {
	params := make([]any, len(props))
	for i, p := range props {
		params[i] = p
	}
	return Method{name: methodGetProp, params: params}
}

// SetBright sets the lamp brightness. The device accepts levels in [1,100].
func SetBright(level int) Method {
	return Method{name: methodSetBright, params: []any{level}}
}

// SetPower turns the lamp on or off.
func SetPower(p Power) Method {
	return Method{name: methodSetPower, params: []any{string(p)}}
}

// Toggle flips the lamp power state.
func Toggle() Method {
	return Method{name: methodToggle, params: []any{}}
}

// Name returns the wire method name (e.g. "set_power").
func (m Method) Name() string {
	return m.name
}

// Command is a single outgoing frame. The ID is echoed back by the device
// in the matching Response; the session assigns IDs sequentially from 1.
type Command struct {
	ID     uint64 `json:"id"`
	Method string `json:"method"`
	Params []any  `json:"params"`
}

// NewCommand builds the command frame for a method with the given id.
func NewCommand(id uint64, m Method) Command {
	params := m.params
	if params == nil {
		params = []any{}
	}
	return Command{ID: id, Method: m.name, Params: params}
}

// EncodeCommand serializes a command to its wire form: one JSON object
// followed by the CRLF terminator.
func EncodeCommand(cmd Command) ([]byte, error) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal command: %w", err)
	}
	return append(data, '\r', '\n'), nil
}
