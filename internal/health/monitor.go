package health

// Monitor checks sensors for abnormal behavior once per sensing cycle:
//
//   - Stuck sensor: touch-active status held for too many scans.
//   - No man's land: diff stuck between the noise threshold and the finger
//     threshold + hysteresis for too many scans.
//   - Hyper event: diff far above the finger threshold (a configured
//     multiple). This is similar to, but the inverse of, a low baseline
//     reset with the scan count set to 1: an abrupt raw-count disturbance
//     can leave the baseline reset against a dip, so when raw counts return
//     to normal the sensor shows what looks like a finger event with very
//     large signal.
//
// The two counter rules fire when their counter crosses the configured scan
// count, then reset the counter to zero. Counters are never cleared on a
// cycle where the condition does not hold, so non-contiguous occurrences
// accumulate. The hyper event rule carries no counter and fires on every
// cycle the condition holds.
//
// A Monitor is not safe for concurrent use; the caller invokes Check from a
// single scheduling context, once per scan cycle.
type Monitor struct {
	layout    *Layout
	baseliner Baseliner

	hyperMultiplier uint32
	noMansLandMax   uint32
	stuckMax        uint32

	// Persistent per-sensor counters, indexed by global position.
	// Allocated once for the configured sensor count.
	noMansLandCounter []uint32
	stuckCounter      []uint32

	counts RuleCounts
}

// NewMonitor creates a Monitor for the given layout. The baseliner is the
// engine's baseline reinitialization primitive; it may be nil if baseline
// correction will never be requested.
func NewMonitor(layout *Layout, cfg Config, baseliner Baseliner) *Monitor {
	cfg = cfg.withDefaults()
	return &Monitor{
		layout:            layout,
		baseliner:         baseliner,
		hyperMultiplier:   cfg.HyperEventMultiplier,
		noMansLandMax:     cfg.NoMansLandCount(),
		stuckMax:          cfg.StuckSensorCount(),
		noMansLandCounter: make([]uint32, layout.SensorCount()),
		stuckCounter:      make([]uint32, layout.SensorCount()),
	}
}

// Check evaluates the selected sensors against the current scan and returns
// a bitmask of anomalous sensors (bit index = global sensor position; zero
// means all checked sensors are normal). Pass AllSensors to check every
// configured sensor. Mask bits beyond the configured sensor count have no
// effect. If resetBaseline is true, each firing rule reinitializes the
// affected sensor's baseline; otherwise anomalies are only reported, and
// the counters still advance and reset as usual.
func (m *Monitor) Check(scan Scan, sensorMask uint32, resetBaseline bool) uint32 {
	result, _ := m.CheckAnomalies(scan, sensorMask, resetBaseline)
	return result
}

// CheckAnomalies is Check with a per-rule breakdown: it additionally returns
// one Anomaly per rule fired, in position order, for event consumers. A
// sensor failing several rules in one cycle yields several anomalies (and,
// when resetBaseline is true, one baseline reset per fired rule).
func (m *Monitor) CheckAnomalies(scan Scan, sensorMask uint32, resetBaseline bool) (uint32, []Anomaly) {
	var result uint32
	var anomalies []Anomaly

	for pos := 0; pos < m.layout.SensorCount() && pos < len(scan); pos++ {
		if sensorMask&(1<<uint(pos)) == 0 {
			continue
		}

		widget, sensor, wd := m.layout.At(pos)
		r := scan[pos]

		// Hyper event first: acts immediately on this scan.
		if uint32(r.Diff) > m.hyperMultiplier*uint32(wd.FingerThreshold) {
			m.counts.HyperEvent++
			result |= 1 << uint(pos)
			anomalies = append(anomalies, Anomaly{Position: pos, Widget: widget, Sensor: sensor, Rule: RuleHyperEvent, Diff: r.Diff})
			if resetBaseline && m.baseliner != nil {
				m.baseliner.InitializeSensorBaseline(widget, sensor)
			}
		}

		// No man's land: diff between NT and FT+HYS.
		if uint32(r.Diff) > uint32(wd.NoiseThreshold) &&
			uint32(r.Diff) < uint32(wd.FingerThreshold)+uint32(wd.Hysteresis) {
			m.noMansLandCounter[pos]++
			if m.noMansLandCounter[pos] > m.noMansLandMax {
				m.counts.NoMansLand++
				result |= 1 << uint(pos)
				anomalies = append(anomalies, Anomaly{Position: pos, Widget: widget, Sensor: sensor, Rule: RuleNoMansLand, Diff: r.Diff})
				if resetBaseline && m.baseliner != nil {
					m.baseliner.InitializeSensorBaseline(widget, sensor)
				}
				m.noMansLandCounter[pos] = 0
			}
		}

		// Stuck sensor: touch-active held too long.
		if r.Touched() {
			m.stuckCounter[pos]++
			if m.stuckCounter[pos] > m.stuckMax {
				m.counts.StuckSensor++
				result |= 1 << uint(pos)
				anomalies = append(anomalies, Anomaly{Position: pos, Widget: widget, Sensor: sensor, Rule: RuleStuckSensor, Diff: r.Diff})
				if resetBaseline && m.baseliner != nil {
					m.baseliner.InitializeSensorBaseline(widget, sensor)
				}
				m.stuckCounter[pos] = 0
			}
		}
	}

	return result, anomalies
}

// Counts returns the cumulative number of rule firings since startup.
func (m *Monitor) Counts() RuleCounts {
	return m.counts
}

// SensorStates returns a snapshot of every sensor's counters, annotated
// with the latest scan's reading where available. The scan may be nil.
func (m *Monitor) SensorStates(scan Scan) []SensorState {
	states := make([]SensorState, m.layout.SensorCount())
	for pos := range states {
		widget, sensor, _ := m.layout.At(pos)
		states[pos] = SensorState{
			Position:   pos,
			Widget:     widget,
			Sensor:     sensor,
			NoMansLand: m.noMansLandCounter[pos],
			Stuck:      m.stuckCounter[pos],
		}
		if pos < len(scan) {
			states[pos].LastDiff = scan[pos].Diff
			states[pos].Touched = scan[pos].Touched()
		}
	}
	return states
}
