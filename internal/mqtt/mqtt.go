// Package mqtt publishes telemetry snapshots and lifecycle events to a
// broker, with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/helium/internal/telemetry"
)

// Topics.
const (
	TopicSensors = "helium/telemetry/sensors"
	TopicFixes   = "helium/telemetry/fixes"
	TopicSystem  = "helium/system"
)

// Publisher publishes snapshots and system events to MQTT.
// It satisfies telemetry.Sink.
type Publisher interface {
	telemetry.Sink

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active and how
// much is queued behind it.
type ConnectionStatus interface {
	IsConnected() bool
	Buffered() int
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT", "MODE"
	Reason     string // e.g., "SIGTERM", "QUIT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// SensorPayload wraps a sensor snapshot on the wire.
type SensorPayload struct {
	Sensors telemetry.SensorSnapshot `json:"sensors"`
}

// FixPayload wraps a fix snapshot on the wire.
type FixPayload struct {
	Fix telemetry.FixSnapshot `json:"fix"`
}

// FormatSensorPayload creates the JSON payload for a sensor snapshot.
func FormatSensorPayload(s telemetry.SensorSnapshot) ([]byte, error) {
	s.Time = s.Time.UTC()
	return json.Marshal(SensorPayload{Sensors: s})
}

// FormatFixPayload creates the JSON payload for a fix snapshot.
func FormatFixPayload(f telemetry.FixSnapshot) ([]byte, error) {
	f.Time = f.Time.UTC()
	return json.Marshal(FixPayload{Fix: f})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
