package discovery

import (
	"testing"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Response
		ok   bool
	}{
		{
			name: "typical answer",
			data: "HTTP/1.1 200 OK\r\nLocation: yeelight://10.0.0.5:55443\r\nid: 0x1\r\nmodel: color\r\n",
			want: Response{Model: "color", ID: "0x1", Location: "yeelight://10.0.0.5:55443"},
			ok:   true,
		},
		{
			name: "bare newlines",
			data: "HTTP/1.1 200 OK\nLocation: yeelight://10.0.0.5:55443\nid: 0x1\nmodel: color\n",
			want: Response{Model: "color", ID: "0x1", Location: "yeelight://10.0.0.5:55443"},
			ok:   true,
		},
		{
			name: "extra headers ignored",
			data: "HTTP/1.1 200 OK\r\nCache-Control: max-age=3600\r\nLocation: yeelight://10.0.0.5:55443\r\nid: 0x1\r\nmodel: mono\r\nsupport: get_prop set_power toggle\r\n",
			want: Response{Model: "mono", ID: "0x1", Location: "yeelight://10.0.0.5:55443"},
			ok:   true,
		},
		{
			name: "missing model dropped",
			data: "HTTP/1.1 200 OK\r\nLocation: yeelight://10.0.0.5:55443\r\nid: 0x1\r\n",
			ok:   false,
		},
		{
			name: "missing id dropped",
			data: "HTTP/1.1 200 OK\r\nLocation: yeelight://10.0.0.5:55443\r\nmodel: color\r\n",
			ok:   false,
		},
		{
			name: "missing location dropped",
			data: "HTTP/1.1 200 OK\r\nid: 0x1\r\nmodel: color\r\n",
			ok:   false,
		},
		{
			name: "keys are case-sensitive",
			data: "HTTP/1.1 200 OK\r\nlocation: yeelight://10.0.0.5:55443\r\nid: 0x1\r\nmodel: color\r\n",
			ok:   false,
		},
		{
			name: "lines without separator skipped",
			data: "HTTP/1.1 200 OK\r\ngarbage\r\nLocation: yeelight://10.0.0.5:55443\r\nid: 0x1\r\nmodel: color\r\n",
			want: Response{Model: "color", ID: "0x1", Location: "yeelight://10.0.0.5:55443"},
			ok:   true,
		},
		{
			name: "empty datagram",
			data: "",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseResponse([]byte(tt.data))
			if ok != tt.ok {
				t.Fatalf("parseResponse() ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("parseResponse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestContainsResponse_Dedup(t *testing.T) {
	first := Response{Model: "color", ID: "0x1", Location: "yeelight://10.0.0.5:55443"}

	var responses []Response
	for _, r := range []Response{
		first,
		first, // duplicate answer from the same device
		{Model: "mono", ID: "0x2", Location: "yeelight://10.0.0.6:55443"},
	} {
		if containsResponse(responses, r) {
			continue
		}
		responses = append(responses, r)
	}

	if len(responses) != 2 {
		t.Fatalf("got %d responses, want 2", len(responses))
	}
	if responses[0] != first {
		t.Errorf("first-arrival order not preserved: %+v", responses[0])
	}
}

func TestResponse_Address(t *testing.T) {
	r := Response{Location: "yeelight://10.0.0.5:55443"}
	if got := r.Address(); got != "10.0.0.5:55443" {
		t.Errorf("Address() = %q, want %q", got, "10.0.0.5:55443")
	}
}

func TestSearchMessage(t *testing.T) {
	want := "M-SEARCH * HTTP/1.1\r\n" +
		"HOST: 239.255.255.250:1982\r\n" +
		"MAN: \"ssdp:discover\"\r\n" +
		"ST: wifi_bulb\r\n"
	if searchMessage != want {
		t.Errorf("searchMessage = %q, want %q", searchMessage, want)
	}
}
