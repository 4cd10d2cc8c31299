package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/capsense-health/internal/health"
)

func TestFormatPayload(t *testing.T) {
	event := AnomalyEvent{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Anomaly: health.Anomaly{
			Position: 5,
			Widget:   1,
			Sensor:   2,
			Rule:     health.RuleHyperEvent,
			Diff:     250,
		},
		WidgetName:    "slider",
		BaselineReset: true,
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Capsense.Timestamp != "2026-02-02T22:18:12Z" {
		t.Errorf("unexpected timestamp: %s", parsed.Capsense.Timestamp)
	}
	if parsed.Capsense.Rule != "HYPER_EVENT" {
		t.Errorf("unexpected rule: %s", parsed.Capsense.Rule)
	}
	if parsed.Capsense.Widget != "slider" {
		t.Errorf("unexpected widget: %s", parsed.Capsense.Widget)
	}
	if parsed.Capsense.WidgetIndex != 1 || parsed.Capsense.SensorIndex != 2 {
		t.Errorf("unexpected addressing: widget %d sensor %d", parsed.Capsense.WidgetIndex, parsed.Capsense.SensorIndex)
	}
	if parsed.Capsense.Position != 5 {
		t.Errorf("unexpected position: %d", parsed.Capsense.Position)
	}
	if parsed.Capsense.Diff != 250 {
		t.Errorf("unexpected diff: %d", parsed.Capsense.Diff)
	}
	if !parsed.Capsense.BaselineReset {
		t.Error("expected baseline_reset=true")
	}
}

func TestFormatPayloadAllRules(t *testing.T) {
	tests := []struct {
		rule     health.Rule
		wantRule string
	}{
		{health.RuleHyperEvent, "HYPER_EVENT"},
		{health.RuleNoMansLand, "NO_MANS_LAND"},
		{health.RuleStuckSensor, "STUCK_SENSOR"},
	}

	for _, tt := range tests {
		t.Run(string(tt.rule), func(t *testing.T) {
			event := AnomalyEvent{
				Timestamp: time.Now(),
				Anomaly:   health.Anomaly{Rule: tt.rule, Diff: 45},
			}

			payload, err := FormatPayload(event)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var parsed Payload
			if err := json.Unmarshal(payload, &parsed); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}

			if parsed.Capsense.Rule != tt.wantRule {
				t.Errorf("rule: got %s, want %s", parsed.Capsense.Rule, tt.wantRule)
			}
		})
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	event := AnomalyEvent{
		Timestamp: time.Now(),
		Anomaly:   health.Anomaly{Rule: health.RuleNoMansLand, Position: 3},
	}

	err := f.Publish(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(f.Events))
	}

	if f.Events[0].Anomaly.Rule != health.RuleNoMansLand {
		t.Errorf("unexpected rule: %s", f.Events[0].Anomaly.Rule)
	}

	if len(f.Payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(f.Payloads))
	}
}

func TestFakePublisherError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("simulated error")

	err := f.Publish(AnomalyEvent{Timestamp: time.Now()})
	if err == nil {
		t.Error("expected error")
	}

	if len(f.Events) != 0 {
		t.Errorf("expected no events recorded on error, got %d", len(f.Events))
	}
}

func TestFakePublisherClose(t *testing.T) {
	f := NewFakePublisher()

	if f.Closed {
		t.Error("should not be closed initially")
	}

	err := f.Close()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()

	f.Publish(AnomalyEvent{Timestamp: time.Now()})
	f.Close()
	f.PublishError = errors.New("error")

	f.Reset()

	if len(f.Events) != 0 {
		t.Error("events should be cleared")
	}
	if len(f.Payloads) != 0 {
		t.Error("payloads should be cleared")
	}
	if f.Closed {
		t.Error("closed should be reset")
	}
	if f.PublishError != nil {
		t.Error("error should be cleared")
	}
}

func TestTopics(t *testing.T) {
	if Topic != "diag/capsense/health/anomalies" {
		t.Errorf("unexpected topic: %s", Topic)
	}
	if TopicSystem != "diag/capsense/health/system" {
		t.Errorf("unexpected system topic: %s", TopicSystem)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed SystemPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.System.Timestamp != "2026-02-02T22:18:12Z" {
		t.Errorf("unexpected timestamp: %s", parsed.System.Timestamp)
	}
	if parsed.System.Event != "SHUTDOWN" {
		t.Errorf("unexpected event: %s", parsed.System.Event)
	}
	if parsed.System.Reason != "SIGTERM" {
		t.Errorf("unexpected reason: %s", parsed.System.Reason)
	}
}

func TestFormatSystemPayloadNoReason(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Event:     "HEARTBEAT",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var raw map[string]map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if _, present := raw["system"]["reason"]; present {
		t.Error("reason should be omitted when empty")
	}
}

func TestFormatSystemPayloadRawPassthrough(t *testing.T) {
	raw := []byte(`{"status":{"event":"STARTUP"}}`)
	event := SystemEvent{
		Timestamp:  time.Now(),
		Event:      "STARTUP",
		RawPayload: raw,
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("raw payload not passed through: %s", payload)
	}
}

func TestFakePublisherSystemEvents(t *testing.T) {
	f := NewFakePublisher()

	event := SystemEvent{
		Timestamp: time.Now(),
		Event:     "STARTUP",
		Retained:  true,
	}
	if err := f.PublishSystem(event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(f.SystemEvents))
	}
	if f.SystemEvents[0].Event != "STARTUP" {
		t.Errorf("unexpected event: %s", f.SystemEvents[0].Event)
	}
	if !f.SystemEvents[0].Retained {
		t.Error("expected retained flag preserved")
	}
	if len(f.SystemPayloads) != 1 {
		t.Fatalf("expected 1 system payload, got %d", len(f.SystemPayloads))
	}
}
