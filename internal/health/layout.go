package health

import "fmt"

// position maps a global sensor position to its widget and within-widget
// sensor index.
type position struct {
	widget int
	sensor int
}

// Layout is the stable mapping from global sensor position to
// (widget, sensor-within-widget), flattened in widget-major, sensor-minor
// enumeration order. It must match the acquisition engine's enumeration
// order exactly or counters and results will be misattributed. Build it
// once at startup.
type Layout struct {
	widgets   []WidgetConfig
	positions []position
}

// NewLayout builds a Layout from the ordered widget configurations.
func NewLayout(widgets []WidgetConfig) (*Layout, error) {
	if len(widgets) == 0 {
		return nil, fmt.Errorf("layout: no widgets configured")
	}

	l := &Layout{widgets: widgets}
	for w, wd := range widgets {
		if wd.Sensors < 1 {
			return nil, fmt.Errorf("layout: widget %d (%s) has %d sensors", w, wd.Name, wd.Sensors)
		}
		for s := 0; s < wd.Sensors; s++ {
			l.positions = append(l.positions, position{widget: w, sensor: s})
		}
	}

	if len(l.positions) > MaxSensors {
		return nil, fmt.Errorf("layout: %d sensors exceeds mask capacity of %d", len(l.positions), MaxSensors)
	}
	return l, nil
}

// SensorCount returns the total number of configured sensors.
func (l *Layout) SensorCount() int {
	return len(l.positions)
}

// WidgetCount returns the number of configured widgets.
func (l *Layout) WidgetCount() int {
	return len(l.widgets)
}

// Widgets returns the ordered widget configurations.
func (l *Layout) Widgets() []WidgetConfig {
	return l.widgets
}

// At returns the (widget index, within-widget sensor index) and widget
// config for a global sensor position.
func (l *Layout) At(pos int) (widget, sensor int, cfg WidgetConfig) {
	p := l.positions[pos]
	return p.widget, p.sensor, l.widgets[p.widget]
}
