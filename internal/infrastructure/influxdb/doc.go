// Package influxdb provides InfluxDB connectivity for bvmctl.
//
// It wraps the official influxdb-client-go v2 library with the connection
// management, metric writing, and health monitoring patterns used across
// the codebase.
//
// # Purpose
//
// This package handles time-series data storage for:
//   - Monitor state snapshots (feature flags over time)
//   - Device link counters (polls, acks, timeouts, reconnects)
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "broadcast",
//	    Bucket: "metrics",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteStateSnapshot("bvm-001", map[string]bool{"power": true})
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a callback.
// Connection and health check errors are returned directly.
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size, flush_interval).
// This reduces network overhead for high-frequency telemetry data.
package influxdb
