// Package status provides a thread-safe status tracker for the
// capsense-health daemon. It is designed to be read by HTTP handlers and
// the MQTT lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/capsense-health/internal/health"
)

// Config contains daemon configuration for display.
type Config struct {
	ScanMs         int64
	StuckTimeoutMs int64
	NMLTimeoutMs   int64
	HeartbeatMs    int64
	HyperMult      uint32
	SensorMask     uint32
	ResetBaseline  bool
	Broker         string
	HTTPAddr       string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Sensors        []health.SensorState
	LastMask       uint32
	Counts         health.RuleCounts
	BaselineResets int
	Cycles         int64
	StartTime      time.Time
	Now            time.Time
	MQTTConnected  bool
	Config         Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets per-sensor states, the last anomaly mask, and cumulative
// counts. Called from the run loop on every cycle.
func (t *Tracker) Update(sensors []health.SensorState, lastMask uint32, counts health.RuleCounts, baselineResets int, cycles int64) {
	t.mu.Lock()
	t.snap.Sensors = sensors
	t.snap.LastMask = lastMask
	t.snap.Counts = counts
	t.snap.BaselineResets = baselineResets
	t.snap.Cycles = cycles
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
