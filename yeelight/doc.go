// Package yeelight implements the Yeelight LAN control protocol: a
// newline-framed JSON protocol spoken over TCP port 55443.
//
// The package has two layers:
//   - A pure wire codec: Command/Method encoding and the Response vs
//     Notification union decode (frames with an "id" are replies, frames
//     without one are unsolicited property-change notifications).
//   - A Session: a long-lived connection that multiplexes concurrent
//     request/response exchanges over the single socket, correlating
//     replies by a per-session monotonic id, and forwards notifications
//     to a caller-supplied channel.
//
// # Basic Usage
//
//	notifications := make(chan yeelight.Notification, 8)
//	session, err := yeelight.Open("192.168.1.40", notifications)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer session.Close()
//
//	resp, err := session.Send(ctx, yeelight.SetPower(yeelight.PowerOn))
//	if err != nil {
//		log.Fatal(err)
//	}
//	if resp.IsError() {
//		log.Fatal(resp.Error)
//	}
//
// Replies for concurrent commands may arrive in any order; the session's
// correlation map routes each to the right caller. There is no ordering
// guarantee between a command's reply and the "props" notification the
// command provokes.
package yeelight
