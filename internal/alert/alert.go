// Package alert drives a GPIO fault-indicator line that is held active
// while any checked sensor is anomalous. The real implementation uses the
// Linux GPIO character device; the fake allows testing without hardware.
package alert

// Line drives the fault indicator output.
type Line interface {
	// Set drives the line active (true) or inactive (false).
	Set(active bool) error

	// Close releases GPIO resources.
	Close() error
}

// DefaultPin is the BCM pin number for the fault indicator.
const DefaultPin = 21
