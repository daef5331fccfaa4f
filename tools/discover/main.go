// Standalone Yeelight discovery tool.
//
// Sends one SSDP M-SEARCH probe to the Yeelight multicast group and
// prints every device that answers within the window.
//
// Usage:
//
//	go run tools/discover/main.go [options]
//
// Options:
//
//	-timeout duration Discovery window (default 3s)
//	-json             Output as JSON
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tj-smith47/yeelight-go/discovery"
)

func main() {
	timeout := flag.Duration("timeout", 3*time.Second, "discovery window")
	asJSON := flag.Bool("json", false, "output as JSON")
	flag.Parse()

	devices, err := discovery.Discover(*timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "discovery failed: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		out := make([]map[string]string, 0, len(devices))
		for _, d := range devices {
			out = append(out, map[string]string{
				"model":    d.Model,
				"id":       d.ID,
				"location": d.Location,
			})
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return
	}

	if len(devices) == 0 {
		fmt.Println("No devices found")
		return
	}

	for _, d := range devices {
		fmt.Printf("%-8s %-20s %s\n", d.Model, d.ID, d.Address())
	}
}
