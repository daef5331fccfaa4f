// Package testutil provides shared fakes for tests: a scripted Yeelight
// lamp served over loopback TCP, and an in-memory broker recording
// publishes and injecting inbound messages.
package testutil
