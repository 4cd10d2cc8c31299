// Command capsense-health runs the CapSense sensor health monitor over
// captured scan data, publishing anomalies to MQTT and driving an optional
// GPIO fault indicator.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sweeney/capsense-health/internal/alert"
	"github.com/sweeney/capsense-health/internal/engine"
	"github.com/sweeney/capsense-health/internal/health"
	"github.com/sweeney/capsense-health/internal/mqtt"
	"github.com/sweeney/capsense-health/internal/status"
	"github.com/sweeney/capsense-health/internal/web"
)

func main() {
	scan := flag.Duration("scan", health.DefaultScanTime, "Scan cycle duration")
	stuckTimeout := flag.Duration("stuck-timeout", health.DefaultStuckSensorTimeout, "Stuck sensor timeout")
	nmlTimeout := flag.Duration("nml-timeout", health.DefaultNoMansLandTimeout, "No man's land timeout")
	hyperMult := flag.Uint("hyper-mult", health.DefaultHyperEventMultiplier, "Hyper event finger-threshold multiplier")
	maskFlag := flag.String("mask", "all", `Sensor selection mask ("all" or hex, e.g. 0x0f)`)
	resetBaseline := flag.Bool("reset-baseline", true, "Reset baselines of anomalous sensors (false = report only)")
	replay := flag.String("replay", "", "Capture file with recorded scan frames (required)")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	httpAddr := flag.String("http", ":8080", "HTTP status address (empty to disable)")
	alertPin := flag.Int("alert-pin", -1, "BCM pin for the fault indicator (-1 to disable)")
	once := flag.Bool("once", false, "Run a single check, print the result mask, and exit")

	var widgets widgetFlags
	flag.Var(&widgets, "widget", "Widget override as sensors:ft:nt:hys[:name] (repeatable)")

	flag.Parse()

	mask, err := parseMask(*maskFlag)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	cfg := health.Config{
		StuckSensorTimeout:   *stuckTimeout,
		NoMansLandTimeout:    *nmlTimeout,
		ScanTime:             *scan,
		HyperEventMultiplier: uint32(*hyperMult),
	}

	if err := run(*replay, widgets, cfg, mask, *resetBaseline, *broker, *heartbeat, *httpAddr, *alertPin, *once); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(replayPath string, widgets widgetFlags, cfg health.Config, mask uint32, resetBaseline bool, broker string, heartbeat time.Duration, httpAddr string, alertPin int, once bool) error {
	if replayPath == "" {
		return fmt.Errorf("no capture file given (use -replay)")
	}

	eng, err := engine.LoadReplay(replayPath)
	if err != nil {
		return fmt.Errorf("load capture: %w", err)
	}
	defer eng.Close()

	// Widget overrides let thresholds be tuned against a recorded trace
	// without editing the capture.
	widgetConfigs := eng.Widgets()
	if len(widgets) > 0 {
		if total := widgets.sensorCount(); total != sensorCount(widgetConfigs) {
			return fmt.Errorf("widget overrides describe %d sensors, capture has %d", total, sensorCount(widgetConfigs))
		}
		widgetConfigs = widgets
	}

	layout, err := health.NewLayout(widgetConfigs)
	if err != nil {
		return err
	}
	monitor := health.NewMonitor(layout, cfg, eng)

	// Single-check mode
	if once {
		frame, err := eng.Scan()
		if err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		result := monitor.Check(frame, mask, resetBaseline)
		fmt.Printf("result: 0x%08x\n", result)
		return nil
	}

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize alert line
	var line alert.Line
	if alertPin >= 0 {
		real, err := alert.NewRealLine(alertPin)
		if err != nil {
			return fmt.Errorf("init alert line: %w", err)
		}
		defer real.Close()
		line = real
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		ScanMs:         cfg.ScanTime.Milliseconds(),
		StuckTimeoutMs: cfg.StuckSensorTimeout.Milliseconds(),
		NMLTimeoutMs:   cfg.NoMansLandTimeout.Milliseconds(),
		HeartbeatMs:    heartbeat.Milliseconds(),
		HyperMult:      cfg.HyperEventMultiplier,
		SensorMask:     mask,
		ResetBaseline:  resetBaseline,
		Broker:         broker,
		HTTPAddr:       httpAddr,
	})

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if httpAddr != "" {
		srv := web.New(httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", httpAddr)
	}

	log.Printf("started: scan=%v sensors=%d mask=0x%08x reset-baseline=%v broker=%s",
		cfg.ScanTime, layout.SensorCount(), mask, resetBaseline, broker)

	ticker := time.NewTicker(cfg.ScanTime)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(eng, monitor, layout, publisher, publisher, tracker, line, mask, resetBaseline, heartbeat, time.Now, ticker.C, sigCh)
}

func runLoop(eng engine.Engine, monitor *health.Monitor, layout *health.Layout, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, line alert.Line, mask uint32, resetBaseline bool, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	lastHeartbeat := now()
	var cycles int64
	var baselineResets int

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName(s),
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName(s))
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			if line != nil {
				if err := line.Set(false); err != nil {
					log.Printf("clear alert line: %v", err)
				}
			}
			return nil

		case t := <-tick:
			frame, err := eng.Scan()
			if err != nil {
				log.Printf("scan error: %v", err)
				continue
			}

			result, anomalies := monitor.CheckAnomalies(frame, mask, resetBaseline)
			cycles++
			if resetBaseline {
				baselineResets += len(anomalies)
			}

			for _, a := range anomalies {
				_, _, wd := layout.At(a.Position)
				log.Printf("anomaly: %s widget=%s sensor=%d position=%d diff=%d", a.Rule, wd.Name, a.Sensor, a.Position, a.Diff)
				event := mqtt.AnomalyEvent{
					Timestamp:     t,
					Anomaly:       a,
					WidgetName:    wd.Name,
					BaselineReset: resetBaseline,
				}
				if err := publisher.Publish(event); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
			}

			if line != nil {
				if err := line.Set(result != 0); err != nil {
					log.Printf("alert line error: %v", err)
				}
			}

			// Check for heartbeat
			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				counts := monitor.Counts()
				log.Printf("heartbeat: cycles=%d hyper=%d nml=%d stuck=%d resets=%d",
					cycles, counts.HyperEvent, counts.NoMansLand, counts.StuckSensor, baselineResets)

				hbEvent := mqtt.SystemEvent{
					Timestamp: t,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					if mqttStatus != nil {
						tracker.SetMQTTConnected(mqttStatus.IsConnected())
					}
					tracker.Update(monitor.SensorStates(frame), result, counts, baselineResets, cycles)
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			// Update status tracker for HTTP consumers
			if tracker != nil {
				tracker.Update(monitor.SensorStates(frame), result, monitor.Counts(), baselineResets, cycles)
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}
		}
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// parseMask converts the -mask flag value into a sensor selection mask.
func parseMask(s string) (uint32, error) {
	if strings.EqualFold(s, "all") {
		return health.AllSensors, nil
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("mask: cannot parse %q: %w", s, err)
	}
	return uint32(v), nil
}

// widgetFlags collects repeated -widget specs as sensors:ft:nt:hys[:name].
type widgetFlags []health.WidgetConfig

func (w *widgetFlags) String() string {
	var parts []string
	for _, wd := range *w {
		parts = append(parts, fmt.Sprintf("%d:%d:%d:%d:%s", wd.Sensors, wd.FingerThreshold, wd.NoiseThreshold, wd.Hysteresis, wd.Name))
	}
	return strings.Join(parts, ",")
}

func (w *widgetFlags) Set(value string) error {
	fields := strings.Split(value, ":")
	if len(fields) < 4 || len(fields) > 5 {
		return fmt.Errorf("widget: want sensors:ft:nt:hys[:name], got %q", value)
	}

	nums := make([]uint64, 4)
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseUint(fields[i], 10, 16)
		if err != nil {
			return fmt.Errorf("widget: field %d of %q: %w", i+1, value, err)
		}
		nums[i] = v
	}

	wd := health.WidgetConfig{
		Sensors:         int(nums[0]),
		FingerThreshold: uint16(nums[1]),
		NoiseThreshold:  uint16(nums[2]),
		Hysteresis:      uint16(nums[3]),
		Name:            fmt.Sprintf("widget%d", len(*w)),
	}
	if len(fields) == 5 {
		wd.Name = fields[4]
	}

	*w = append(*w, wd)
	return nil
}

func (w widgetFlags) sensorCount() int {
	return sensorCount(w)
}

func sensorCount(widgets []health.WidgetConfig) int {
	n := 0
	for _, wd := range widgets {
		n += wd.Sensors
	}
	return n
}
