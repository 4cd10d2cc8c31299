package engine

import (
	"errors"

	"github.com/sweeney/capsense-health/internal/health"
)

// Fake is a test double that returns scripted scan frames.
type Fake struct {
	// WidgetConfigs is returned by Widgets.
	WidgetConfigs []health.WidgetConfig

	// Frames contains scripted scans. Each call to Scan consumes the next
	// frame; when exhausted, the last frame repeats.
	Frames []health.Scan

	// index tracks current position in Frames
	index int

	// BaselineCalls records every InitializeSensorBaseline invocation as
	// (widget, sensor) pairs, in order.
	BaselineCalls [][2]int

	// ScanError, if set, will be returned by Scan.
	ScanError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFake creates a Fake engine with the given widgets and frames.
func NewFake(widgets []health.WidgetConfig, frames []health.Scan) *Fake {
	return &Fake{WidgetConfigs: widgets, Frames: frames}
}

// Widgets returns the scripted widget configurations.
func (f *Fake) Widgets() []health.WidgetConfig {
	return f.WidgetConfigs
}

// Scan returns the next scripted frame.
func (f *Fake) Scan() (health.Scan, error) {
	if f.ScanError != nil {
		return nil, f.ScanError
	}
	if len(f.Frames) == 0 {
		return nil, errors.New("no frames configured")
	}

	frame := f.Frames[f.index]
	if f.index < len(f.Frames)-1 {
		f.index++
	}
	return frame, nil
}

// InitializeSensorBaseline records the call.
func (f *Fake) InitializeSensorBaseline(widget, sensor int) {
	f.BaselineCalls = append(f.BaselineCalls, [2]int{widget, sensor})
}

// Close marks the engine as closed.
func (f *Fake) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the frames and clears recorded calls.
func (f *Fake) Reset() {
	f.index = 0
	f.BaselineCalls = nil
	f.Closed = false
	f.ScanError = nil
}
