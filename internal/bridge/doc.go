// Package bridge connects the coordination core to the MQTT broker.
//
// Inbound, it subscribes to the command topics and translates JSON payloads
// into queued device commands. Outbound, it publishes a retained state
// snapshot on every change and periodic link counters, and optionally
// mirrors both into the time-series database.
//
// The bridge never talks to the monitor directly; commands go through the
// bounded queue and state comes from dispatcher notifications, the same
// paths the HTTP API uses.
package bridge
