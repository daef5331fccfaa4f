// Package discovery locates Yeelight devices on the local network.
//
// Yeelight lamps answer an SSDP-style M-SEARCH probe sent to the multicast
// group 239.255.255.250:1982 with an HTTP-like header block carrying the
// device model, id and control endpoint:
//
//	HTTP/1.1 200 OK
//	Location: yeelight://192.168.1.40:55443
//	id: 0x0000000007fb9daf
//	model: color
//	...
//
// Discover sends one probe and collects unique answers for a bounded
// window:
//
//	devices, err := discovery.Discover(3 * time.Second)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, d := range devices {
//		fmt.Printf("%s (%s) at %s\n", d.Model, d.ID, d.Address())
//	}
package discovery
