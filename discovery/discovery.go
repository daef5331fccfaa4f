package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"
)

// SSDP multicast address and port used by Yeelight devices.
const (
	MulticastAddr = "239.255.255.250"
	MulticastPort = 1982
)

// searchMessage is the exact M-SEARCH datagram Yeelight devices answer to.
const searchMessage = "M-SEARCH * HTTP/1.1\r\n" +
	"HOST: 239.255.255.250:1982\r\n" +
	"MAN: \"ssdp:discover\"\r\n" +
	"ST: wifi_bulb\r\n"

// Response is one device's answer to an M-SEARCH probe.
type Response struct {
	Model    string
	ID       string
	Location string // yeelight://<host>:<port>
}

// Address returns the TCP address of the device, with the yeelight://
// scheme stripped from the Location header.
func (r Response) Address() string {
	return strings.TrimPrefix(r.Location, "yeelight://")
}

// Discover probes the local network for Yeelight devices, collecting
// answers for the given window.
func Discover(timeout time.Duration) ([]Response, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return DiscoverWithContext(ctx)
}

// DiscoverWithContext probes the local network for Yeelight devices until
// the context is canceled or its deadline passes.
//
// The returned slice is deduplicated, in order of first arrival, and empty
// when the window elapses with no answers. An error is returned only when
// the probe socket cannot be bound or the M-SEARCH datagram cannot be
// sent.
func DiscoverWithContext(ctx context.Context) ([]Response, error) {
	conn, err := listen()
	if err != nil {
		return nil, fmt.Errorf("failed to bind discovery socket: %w", err)
	}
	defer conn.Close()

	dst := &net.UDPAddr{IP: net.ParseIP(MulticastAddr), Port: MulticastPort}
	if _, err := conn.WriteToUDP([]byte(searchMessage), dst); err != nil {
		return nil, fmt.Errorf("failed to send discovery probe: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
	}

	// Unblock the read loop on cancellation.
	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
	})
	defer stop()

	var responses []Response
	buf := make([]byte, 2048)

	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			// Window elapsed; whatever arrived is the result.
			return responses, nil
		}

		resp, ok := parseResponse(buf[:n])
		if !ok {
			continue
		}
		if containsResponse(responses, resp) {
			continue
		}
		responses = append(responses, resp)
	}
}

// listen binds the probe socket to the host's primary IPv4 interface,
// falling back to the unspecified address.
func listen() (*net.UDPConn, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: localIPv4(), Port: 0})
	if err != nil {
		return net.ListenUDP("udp4", &net.UDPAddr{Port: 0})
	}
	return conn, nil
}

// localIPv4 returns the IPv4 address of the interface holding the default
// route, or nil when it cannot be determined.
func localIPv4() net.IP {
	// No packets are sent; the connected socket just resolves the
	// outbound interface.
	conn, err := net.Dial("udp4", "8.8.8.8:80")
	if err != nil {
		return nil
	}
	defer conn.Close()

	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP
	}
	return nil
}

// parseResponse parses one SSDP answer: an HTTP-like header block with
// "Key: Value" lines. A datagram missing any of model, id or Location is
// dropped.
func parseResponse(data []byte) (Response, bool) {
	var resp Response
	var haveModel, haveID, haveLocation bool

	for _, line := range strings.FieldsFunc(string(data), func(r rune) bool { return r == '\r' || r == '\n' }) {
		key, value, found := strings.Cut(line, ": ")
		if !found {
			continue
		}
		switch key {
		case "model":
			resp.Model = value
			haveModel = true
		case "id":
			resp.ID = value
			haveID = true
		case "Location":
			resp.Location = value
			haveLocation = true
		}
	}

	return resp, haveModel && haveID && haveLocation
}

func containsResponse(responses []Response, resp Response) bool {
	for _, r := range responses {
		if r == resp {
			return true
		}
	}
	return false
}
