package engine

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sweeney/capsense-health/internal/health"
)

// captureFile is the on-disk format for recorded tuner data.
type captureFile struct {
	Widgets []captureWidget  `json:"widgets"`
	Frames  [][]captureFrame `json:"frames"`
}

type captureWidget struct {
	Name            string `json:"name"`
	Sensors         int    `json:"sensors"`
	FingerThreshold uint16 `json:"finger_threshold"`
	NoiseThreshold  uint16 `json:"noise_threshold"`
	Hysteresis      uint16 `json:"hysteresis"`
}

type captureFrame struct {
	Diff   uint16 `json:"diff"`
	Status uint32 `json:"status"`
}

// Replay plays back a capture of scan frames recorded from the CapSense
// tuner, letting the monitor run over real sensor traces off target.
// Scan returns frames in order and repeats the last one when exhausted,
// so a finite capture behaves like a sensor that settled into its final
// state.
type Replay struct {
	widgets       []health.WidgetConfig
	frames        []health.Scan
	index         int
	served        int
	baselineCalls int
}

// LoadReplay reads a JSON capture file and validates frame lengths against
// the widget configuration.
func LoadReplay(path string) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read capture: %w", err)
	}

	var capture captureFile
	if err := json.Unmarshal(data, &capture); err != nil {
		return nil, fmt.Errorf("parse capture %s: %w", path, err)
	}
	if len(capture.Widgets) == 0 {
		return nil, fmt.Errorf("capture %s: no widgets", path)
	}
	if len(capture.Frames) == 0 {
		return nil, fmt.Errorf("capture %s: no frames", path)
	}

	r := &Replay{}
	sensorCount := 0
	for _, w := range capture.Widgets {
		r.widgets = append(r.widgets, health.WidgetConfig{
			Name:            w.Name,
			Sensors:         w.Sensors,
			FingerThreshold: w.FingerThreshold,
			NoiseThreshold:  w.NoiseThreshold,
			Hysteresis:      w.Hysteresis,
		})
		sensorCount += w.Sensors
	}

	for i, frame := range capture.Frames {
		if len(frame) != sensorCount {
			return nil, fmt.Errorf("capture %s: frame %d has %d readings, want %d", path, i, len(frame), sensorCount)
		}
		scan := make(health.Scan, sensorCount)
		for j, reading := range frame {
			scan[j] = health.Reading{Diff: reading.Diff, Status: reading.Status}
		}
		r.frames = append(r.frames, scan)
	}

	return r, nil
}

// Widgets returns the widget configurations from the capture.
func (r *Replay) Widgets() []health.WidgetConfig {
	return r.widgets
}

// Scan returns the next captured frame, repeating the last one when the
// capture is exhausted.
func (r *Replay) Scan() (health.Scan, error) {
	frame := r.frames[r.index]
	if r.index < len(r.frames)-1 {
		r.index++
	}
	if r.served < len(r.frames) {
		r.served++
	}
	return frame, nil
}

// Exhausted reports whether every frame in the capture has been returned
// by Scan at least once.
func (r *Replay) Exhausted() bool {
	return r.served == len(r.frames)
}

// FrameCount returns the number of frames in the capture.
func (r *Replay) FrameCount() int {
	return len(r.frames)
}

// InitializeSensorBaseline counts the call. A capture is a fixed recording,
// so there is no baseline to actually reset.
func (r *Replay) InitializeSensorBaseline(widget, sensor int) {
	r.baselineCalls++
}

// BaselineCalls returns how many baseline resets were requested during
// playback.
func (r *Replay) BaselineCalls() int {
	return r.baselineCalls
}

// Close is a no-op for replay.
func (r *Replay) Close() error {
	return nil
}
