package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteStateSnapshot records the monitor's boolean feature flags as a single
// point. Flags are written as 0/1 integer fields so dashboards can graph
// toggles over time.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - nodeID: This control node's identifier (config node.id)
//   - flags: Flag name to value, e.g. {"power": true, "blue_only": false}
func (c *Client) WriteStateSnapshot(nodeID string, flags map[string]bool) {
	if !c.IsConnected() {
		return
	}

	fields := make(map[string]interface{}, len(flags))
	for name, on := range flags {
		v := 0
		if on {
			v = 1
		}
		fields[name] = v
	}

	point := write.NewPoint(
		"monitor_state",
		map[string]string{
			"node_id": nodeID,
		},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteLinkCounters records device link counters (polls, acks, timeouts,
// reconnects). Useful for spotting a flaky serial adapter before it fails.
//
// Parameters:
//   - nodeID: This control node's identifier
//   - counters: Counter name to value, e.g. {"polls_sent": 1042}
func (c *Client) WriteLinkCounters(nodeID string, counters map[string]uint64) {
	if !c.IsConnected() {
		return
	}

	fields := make(map[string]interface{}, len(counters))
	for name, v := range counters {
		// #nosec G115 -- link counters stay far below int64 range
		fields[name] = int64(v)
	}

	point := write.NewPoint(
		"link_stats",
		map[string]string{
			"node_id": nodeID,
		},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
