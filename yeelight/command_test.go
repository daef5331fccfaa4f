package yeelight

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestEncodeCommand_WireFormat(t *testing.T) {
	tests := []struct {
		name   string
		method Method
		want   string
	}{
		{
			name:   "set_power on",
			method: SetPower(PowerOn),
			want:   `{"id":1,"method":"set_power","params":["on"]}`,
		},
		{
			name:   "set_power off",
			method: SetPower(PowerOff),
			want:   `{"id":1,"method":"set_power","params":["off"]}`,
		},
		{
			name:   "set_bright",
			method: SetBright(50),
			want:   `{"id":1,"method":"set_bright","params":[50]}`,
		},
		{
			name:   "get_prop",
			method: GetProp("power"),
			want:   `{"id":1,"method":"get_prop","params":["power"]}`,
		},
		{
			name:   "get_prop multiple",
			method: GetProp("power", "bright"),
			want:   `{"id":1,"method":"get_prop","params":["power","bright"]}`,
		},
		{
			name:   "toggle has empty params array",
			method: Toggle(),
			want:   `{"id":1,"method":"toggle","params":[]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := EncodeCommand(NewCommand(1, tt.method))
			if err != nil {
				t.Fatalf("EncodeCommand() error = %v", err)
			}

			if !strings.HasSuffix(string(frame), "\r\n") {
				t.Errorf("frame %q does not end with CRLF", frame)
			}

			got := strings.TrimSuffix(string(frame), "\r\n")
			if got != tt.want {
				t.Errorf("EncodeCommand() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEncodeCommand_RoundTrip(t *testing.T) {
	methods := []Method{
		SetPower(PowerOn),
		SetBright(75),
		GetProp("power", "bright"),
		Toggle(),
	}

	for _, m := range methods {
		t.Run(m.Name(), func(t *testing.T) {
			frame, err := EncodeCommand(NewCommand(7, m))
			if err != nil {
				t.Fatalf("EncodeCommand() error = %v", err)
			}

			var decoded Command
			if err := json.Unmarshal(frame, &decoded); err != nil {
				t.Fatalf("decoding encoded command: %v", err)
			}

			if decoded.ID != 7 {
				t.Errorf("ID = %d, want 7", decoded.ID)
			}
			if decoded.Method != m.Name() {
				t.Errorf("Method = %s, want %s", decoded.Method, m.Name())
			}
			if len(decoded.Params) != len(m.params) {
				t.Errorf("Params = %v, want %v", decoded.Params, m.params)
			}
		})
	}
}

func TestParsePower(t *testing.T) {
	tests := []struct {
		input   string
		want    Power
		wantErr bool
	}{
		{input: "on", want: PowerOn},
		{input: "off", want: PowerOff},
		{input: "true", want: PowerOn},
		{input: "false", want: PowerOff},
		{input: "1", want: PowerOn},
		{input: "0", want: PowerOff},
		{input: "ON", want: PowerOn},
		{input: "True", want: PowerOn},
		{input: "OFF", want: PowerOff},
		{input: " on ", want: PowerOn},
		{input: "maybe", wantErr: true},
		{input: "", wantErr: true},
		{input: "2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePower(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParsePower(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePower(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParsePower(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPower_Bool(t *testing.T) {
	if !PowerOn.Bool() {
		t.Error("PowerOn.Bool() = false, want true")
	}
	if PowerOff.Bool() {
		t.Error("PowerOff.Bool() = true, want false")
	}
}
