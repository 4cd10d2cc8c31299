// Package engine is the boundary to the CapSense acquisition engine. The
// engine itself (scanning, filtering, baseline tracking) runs outside this
// process; implementations here either replay captured tuner data or script
// frames for tests.
package engine

import "github.com/sweeney/capsense-health/internal/health"

// Engine exposes the acquisition engine's read side (widget configuration
// and per-sensor scan data) and write side (baseline reinitialization).
// The write side satisfies health.Baseliner.
type Engine interface {
	// Widgets returns the ordered widget configurations. The order defines
	// global sensor positions and must not change over the engine's life.
	Widgets() []health.WidgetConfig

	// Scan returns the current frame of per-sensor readings, indexed by
	// global sensor position.
	Scan() (health.Scan, error)

	// InitializeSensorBaseline reinitializes the tracked baseline for one
	// sensor. Safe to call repeatedly.
	InitializeSensorBaseline(widget, sensor int)

	// Close releases engine resources.
	Close() error
}
