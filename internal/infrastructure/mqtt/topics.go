package mqtt

import "fmt"

// Topic prefixes for the bvmctl MQTT surface.
//
// All topics use the flat scheme: bvmctl/{category}[/{detail}]
const (
	// TopicPrefix is the base for all bvmctl topics.
	TopicPrefix = "bvmctl"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "bvmctl/system"
)

// Topics provides builders for bvmctl MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.State()
//	// Returns: "bvmctl/state"
type Topics struct{}

// State returns the topic carrying the retained monitor state snapshot.
//
// Example: bvmctl/state
func (Topics) State() string {
	return fmt.Sprintf("%s/state", TopicPrefix)
}

// Command returns the topic for inbound commands of one kind
// (toggle, info or knob).
//
// Example: bvmctl/command/toggle
func (Topics) Command(kind string) string {
	return fmt.Sprintf("%s/command/%s", TopicPrefix, kind)
}

// LinkStats returns the topic carrying periodic link counters.
//
// Example: bvmctl/link/stats
func (Topics) LinkStats() string {
	return fmt.Sprintf("%s/link/stats", TopicPrefix)
}

// SystemStatus returns the system status topic (online/offline, LWT).
//
// Example: bvmctl/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllCommands returns a pattern matching all inbound command topics.
//
// Pattern: bvmctl/command/+
func (Topics) AllCommands() string {
	return fmt.Sprintf("%s/command/+", TopicPrefix)
}

// AllTopics returns a pattern matching all bvmctl topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: bvmctl/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}
