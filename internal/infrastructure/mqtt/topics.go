package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes for the coursedb change feed.
const (
	// TopicPrefixEvents is the base for committed change events.
	TopicPrefixEvents = "coursedb/events"

	// TopicPrefixSystem is the base for client status topics.
	TopicPrefixSystem = "coursedb/system"
)

// Topics provides builders for coursedb MQTT topics.
//
//	topic := mqtt.Topics{}.Event("enrollment.added")
//	// Returns: "coursedb/events/enrollment.added"
type Topics struct{}

// Event returns the topic for one kind of change event.
//
// Example: coursedb/events/student.added
func (Topics) Event(kind string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixEvents, kind)
}

// AllEvents returns a pattern matching every change event.
//
// Pattern: coursedb/events/#
func (Topics) AllEvents() string {
	return TopicPrefixEvents + "/#"
}

// SystemStatus returns the retained online/offline status topic.
//
// Example: coursedb/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// EventKind extracts the change kind from an event topic. ok is false for
// topics outside the event prefix.
func (Topics) EventKind(topic string) (kind string, ok bool) {
	kind, ok = strings.CutPrefix(topic, TopicPrefixEvents+"/")
	if !ok || kind == "" {
		return "", false
	}
	return kind, true
}
