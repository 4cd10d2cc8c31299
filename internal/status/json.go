package status

import (
	"encoding/json"
	"fmt"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event          string       `json:"event,omitempty"`
	Reason         string       `json:"reason,omitempty"`
	Healthy        bool         `json:"healthy"`
	LastMask       string       `json:"last_mask"`
	Cycles         int64        `json:"cycles"`
	UptimeSeconds  int64        `json:"uptime_seconds"`
	StartTime      string       `json:"start_time"`
	Timestamp      string       `json:"timestamp"`
	MQTT           MQTTStatus   `json:"mqtt"`
	Counts         CountsJSON   `json:"rule_counts"`
	BaselineResets int          `json:"baseline_resets"`
	Sensors        []SensorJSON `json:"sensors"`
	Config         ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of cumulative rule counts.
type CountsJSON struct {
	HyperEvent  int `json:"hyper_event"`
	NoMansLand  int `json:"no_mans_land"`
	StuckSensor int `json:"stuck_sensor"`
}

// SensorJSON is the JSON representation of one sensor's state.
type SensorJSON struct {
	Position   int    `json:"position"`
	Widget     int    `json:"widget"`
	Sensor     int    `json:"sensor"`
	Diff       uint16 `json:"diff"`
	Touched    bool   `json:"touched"`
	NMLCounter uint32 `json:"nml_counter"`
	StuckCount uint32 `json:"stuck_counter"`
	Anomalous  bool   `json:"anomalous"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	ScanMs         int64  `json:"scan_ms"`
	StuckTimeoutMs int64  `json:"stuck_timeout_ms"`
	NMLTimeoutMs   int64  `json:"nml_timeout_ms"`
	HeartbeatMs    int64  `json:"heartbeat_ms"`
	HyperMult      uint32 `json:"hyper_multiplier"`
	SensorMask     string `json:"sensor_mask"`
	ResetBaseline  bool   `json:"reset_baseline"`
	Broker         string `json:"broker"`
	HTTPAddr       string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Healthy:        snap.LastMask == 0,
		LastMask:       fmt.Sprintf("0x%08x", snap.LastMask),
		Cycles:         snap.Cycles,
		UptimeSeconds:  int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:      snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:      snap.Now.UTC().Format(time.RFC3339),
		MQTT:           MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		BaselineResets: snap.BaselineResets,
		Counts: CountsJSON{
			HyperEvent:  snap.Counts.HyperEvent,
			NoMansLand:  snap.Counts.NoMansLand,
			StuckSensor: snap.Counts.StuckSensor,
		},
		Config: ConfigJSON{
			ScanMs:         snap.Config.ScanMs,
			StuckTimeoutMs: snap.Config.StuckTimeoutMs,
			NMLTimeoutMs:   snap.Config.NMLTimeoutMs,
			HeartbeatMs:    snap.Config.HeartbeatMs,
			HyperMult:      snap.Config.HyperMult,
			SensorMask:     fmt.Sprintf("0x%08x", snap.Config.SensorMask),
			ResetBaseline:  snap.Config.ResetBaseline,
			Broker:         snap.Config.Broker,
			HTTPAddr:       snap.Config.HTTPAddr,
		},
	}

	for _, s := range snap.Sensors {
		inner.Sensors = append(inner.Sensors, SensorJSON{
			Position:   s.Position,
			Widget:     s.Widget,
			Sensor:     s.Sensor,
			Diff:       s.LastDiff,
			Touched:    s.Touched,
			NMLCounter: s.NoMansLand,
			StuckCount: s.Stuck,
			Anomalous:  snap.LastMask&(1<<uint(s.Position)) != 0,
		})
	}

	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
