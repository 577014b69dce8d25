// Package history persists monitor state changes to SQLite.
//
// Every change notification produces one row carrying the full state
// snapshot, giving a local audit trail that survives restarts and works
// when the time-series database is unavailable.
//
// The link flags (link_up, connected, valid) are stored as dedicated
// columns so availability questions can be answered with plain SQL;
// the feature flags travel in the JSON snapshot column.
package history
