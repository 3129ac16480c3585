package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "blebox"

// Topics provides builders for bleboxd MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
// Device topics use the flat scheme {prefix}/{category}/{device_id}/{feature}:
//
//	topics := mqtt.Topics{Prefix: "blebox"}
//	stateTopic := topics.State("1afe34e750b8", "position")
//	// Returns: "blebox/state/1afe34e750b8/position"
type Topics struct {
	// Prefix is the first topic level. Empty means DefaultTopicPrefix.
	Prefix string
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return t.Prefix
}

// =============================================================================
// Device Topics
// =============================================================================

// State returns the topic for feature state updates.
//
// Example: blebox/state/1afe34e750b8/position
func (t Topics) State(deviceID, alias string) string {
	return fmt.Sprintf("%s/state/%s/%s", t.prefix(), deviceID, alias)
}

// Command returns the topic for commands to a feature.
//
// Example: blebox/command/1afe34e750b8/position
func (t Topics) Command(deviceID, alias string) string {
	return fmt.Sprintf("%s/command/%s/%s", t.prefix(), deviceID, alias)
}

// Ack returns the topic for command acknowledgements.
//
// Example: blebox/ack/1afe34e750b8/position
func (t Topics) Ack(deviceID, alias string) string {
	return fmt.Sprintf("%s/ack/%s/%s", t.prefix(), deviceID, alias)
}

// Health returns the topic for gateway health status.
//
// Example: blebox/health
func (t Topics) Health() string {
	return fmt.Sprintf("%s/health", t.prefix())
}

// SystemStatus returns the gateway online/offline status topic.
//
// Example: blebox/system/status
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.prefix())
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// AllCommands returns a pattern matching every feature command.
//
// Pattern: blebox/command/+/+
func (t Topics) AllCommands() string {
	return fmt.Sprintf("%s/command/+/+", t.prefix())
}

// =============================================================================
// Topic Parsing
// =============================================================================

// ParseDeviceTopic splits a device topic into its category, device id and
// feature alias. It reports false for topics outside the prefix or with the
// wrong depth.
//
// Example: "blebox/command/1afe34e750b8/position" → ("command", "1afe34e750b8", "position", true)
func (t Topics) ParseDeviceTopic(topic string) (category, deviceID, alias string, ok bool) {
	rest, found := strings.CutPrefix(topic, t.prefix()+"/")
	if !found {
		return "", "", "", false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}
