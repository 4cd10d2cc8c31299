// Package health contains the pure sensor anomaly detection core for a
// CapSense touch subsystem. This package has NO external dependencies
// (no MQTT, GPIO, OS, or time.Sleep). It consumes scan frames produced by
// the acquisition engine and classifies per-sensor anomalies.
package health

import "time"

// AllSensors is the sentinel mask selecting every configured sensor
// regardless of position.
const AllSensors uint32 = 0xffffffff

// MaxSensors is the hard capacity ceiling imposed by the 32-bit
// selection/result mask.
const MaxSensors = 32

// TouchStatusMask selects the touch-active flag in a sensor status bitfield.
const TouchStatusMask uint32 = 0x1

// Defaults for the detection configuration. The cycle counts for the two
// debounced rules are derived as timeout / scan time (600 and 300 cycles
// at the defaults).
const (
	DefaultStuckSensorTimeout   = 6000 * time.Millisecond
	DefaultNoMansLandTimeout    = 3000 * time.Millisecond
	DefaultScanTime             = 10 * time.Millisecond
	DefaultHyperEventMultiplier = 2
)

// Rule identifies which anomaly check fired.
type Rule string

const (
	// RuleHyperEvent fires when diff exceeds a multiple of the finger
	// threshold. Acts immediately, no counter.
	RuleHyperEvent Rule = "HYPER_EVENT"

	// RuleNoMansLand fires when diff sits between the noise threshold and
	// finger threshold + hysteresis for too many scans.
	RuleNoMansLand Rule = "NO_MANS_LAND"

	// RuleStuckSensor fires when a sensor reports touch-active for too
	// many scans.
	RuleStuckSensor Rule = "STUCK_SENSOR"
)

// WidgetConfig holds the per-widget parameters the acquisition engine
// exposes. Sensors within a widget share one config.
type WidgetConfig struct {
	Name            string
	Sensors         int
	FingerThreshold uint16
	NoiseThreshold  uint16
	Hysteresis      uint16
}

// Reading is one sensor's data from a single scan.
type Reading struct {
	// Diff is the current signal minus the tracked baseline, in the same
	// unit as the widget thresholds.
	Diff uint16

	// Status is the sensor status bitfield from the engine.
	Status uint32
}

// Touched reports whether the touch-active flag is set.
func (r Reading) Touched() bool {
	return r.Status&TouchStatusMask != 0
}

// Scan is one frame of readings, indexed by global sensor position.
type Scan []Reading

// Anomaly describes a single rule firing on a single sensor in one cycle.
type Anomaly struct {
	Position int // global sensor position (bit index in the result mask)
	Widget   int // widget index
	Sensor   int // sensor index within the widget
	Rule     Rule
	Diff     uint16
}

// RuleCounts tracks how many times each rule has fired since startup.
type RuleCounts struct {
	HyperEvent  int
	NoMansLand  int
	StuckSensor int
}

// Total returns the sum across all rules.
func (c RuleCounts) Total() int {
	return c.HyperEvent + c.NoMansLand + c.StuckSensor
}

// SensorState is a point-in-time view of one sensor's persistent counters
// and latest reading, for status display.
type SensorState struct {
	Position   int
	Widget     int
	Sensor     int
	NoMansLand uint32
	Stuck      uint32
	LastDiff   uint16
	Touched    bool
}

// Baseliner is the write side of the acquisition engine: reinitializes the
// tracked baseline for one sensor. Assumed synchronous; no return value is
// consumed.
type Baseliner interface {
	InitializeSensorBaseline(widget, sensor int)
}

// Config holds the detection parameters.
type Config struct {
	// StuckSensorTimeout is how long a sensor may report touch-active
	// before it is considered stuck.
	StuckSensorTimeout time.Duration

	// NoMansLandTimeout is how long a sensor's diff may sit in the
	// no-man's-land band before it is reported.
	NoMansLandTimeout time.Duration

	// ScanTime is the fixed duration of one sensing cycle, used to convert
	// the timeouts to cycle counts.
	ScanTime time.Duration

	// HyperEventMultiplier is the multiple of the finger threshold above
	// which a diff is treated as a hyper event.
	HyperEventMultiplier uint32
}

// withDefaults fills zero fields with the default values.
func (c Config) withDefaults() Config {
	if c.StuckSensorTimeout <= 0 {
		c.StuckSensorTimeout = DefaultStuckSensorTimeout
	}
	if c.NoMansLandTimeout <= 0 {
		c.NoMansLandTimeout = DefaultNoMansLandTimeout
	}
	if c.ScanTime <= 0 {
		c.ScanTime = DefaultScanTime
	}
	if c.HyperEventMultiplier == 0 {
		c.HyperEventMultiplier = DefaultHyperEventMultiplier
	}
	return c
}

// StuckSensorCount returns the number of scans before a continuously
// touched sensor is reported stuck.
func (c Config) StuckSensorCount() uint32 {
	c = c.withDefaults()
	return uint32(c.StuckSensorTimeout / c.ScanTime)
}

// NoMansLandCount returns the number of scans before a sensor stuck in the
// no-man's-land band is reported.
func (c Config) NoMansLandCount() uint32 {
	c = c.withDefaults()
	return uint32(c.NoMansLandTimeout / c.ScanTime)
}
