// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/capsense-health/internal/health"
)

// Topic is the MQTT topic for sensor anomaly events.
const Topic = "diag/capsense/health/anomalies"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "diag/capsense/health/system"

// AnomalyEvent is an anomaly annotated with publication context.
type AnomalyEvent struct {
	Timestamp     time.Time
	Anomaly       health.Anomaly
	WidgetName    string
	BaselineReset bool // whether a baseline reinitialization was applied
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends an anomaly event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event AnomalyEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Capsense AnomalyPayload `json:"capsense"`
}

// AnomalyPayload contains the anomaly event details.
type AnomalyPayload struct {
	Timestamp     string `json:"timestamp"`
	Rule          string `json:"rule"`
	Widget        string `json:"widget"`
	WidgetIndex   int    `json:"widget_index"`
	SensorIndex   int    `json:"sensor_index"`
	Position      int    `json:"position"`
	Diff          uint16 `json:"diff"`
	BaselineReset bool   `json:"baseline_reset"`
}

// FormatPayload creates the JSON payload for an anomaly event.
func FormatPayload(event AnomalyEvent) ([]byte, error) {
	payload := Payload{
		Capsense: AnomalyPayload{
			Timestamp:     event.Timestamp.UTC().Format(time.RFC3339),
			Rule:          string(event.Anomaly.Rule),
			Widget:        event.WidgetName,
			WidgetIndex:   event.Anomaly.Widget,
			SensorIndex:   event.Anomaly.Sensor,
			Position:      event.Anomaly.Position,
			Diff:          event.Anomaly.Diff,
			BaselineReset: event.BaselineReset,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events that don't carry a full status snapshot.
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
