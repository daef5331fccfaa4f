package yeelight

import (
	"encoding/json"
	"fmt"
)

// Message is one inbound frame from the device stream: either a *Response
// correlated to a command, or an unsolicited *Notification.
type Message interface {
	message()
}

// Response is the device's reply to a command. A device reply sets one of
// Result and Error; DecodeMessage does not check this, so a frame carrying
// only an id decodes to a Response with neither set.
type Response struct {
	ID     uint64   `json:"id"`
	Result []string `json:"result,omitempty"`
	Error  *Error   `json:"error,omitempty"`
}

func (*Response) message() {}

// IsError reports whether the response carries a device error.
func (r *Response) IsError() bool {
	return r.Error != nil
}

// String returns a string representation of the response for debugging.
func (r *Response) String() string {
	if r.Error != nil {
		return fmt.Sprintf("Response{ID: %d, Error: %v}", r.ID, r.Error)
	}
	return fmt.Sprintf("Response{ID: %d, Result: %v}", r.ID, r.Result)
}

// Error is the error object of a failed command.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("device error %d: %s", e.Code, e.Message)
}

// Notification is an unsolicited property-change report. The only method
// observed in practice is "props"; params map property names to their new
// values (strings or numbers, depending on the property).
type Notification struct {
	Method string         `json:"method"`
	Params map[string]any `json:"params"`
}

func (*Notification) message() {}

// DecodeMessage parses one line from the device stream.
//
// The wire discriminates replies from notifications by the presence of the
// "id" field: frames with an id are responses, frames without one are
// notifications. The returned Message is either a *Response or a
// *Notification.
func DecodeMessage(data []byte) (Message, error) {
	var probe struct {
		ID *uint64 `json:"id"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	if probe.ID != nil {
		var resp Response
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		return &resp, nil
	}

	var notif Notification
	if err := json.Unmarshal(data, &notif); err != nil {
		return nil, fmt.Errorf("failed to parse notification: %w", err)
	}
	if notif.Method == "" {
		return nil, fmt.Errorf("message is neither a response nor a notification")
	}
	return &notif, nil
}
