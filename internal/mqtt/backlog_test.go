package mqtt

import (
	"fmt"
	"testing"
)

func anomalyMsg(i int) outbound {
	return outbound{topic: Topic, payload: []byte(fmt.Sprintf("event-%d", i)), qos: 0}
}

func TestBacklogAddTakeAll(t *testing.T) {
	b := newBacklog(4)

	if b.size() != 0 {
		t.Fatalf("new backlog size: got %d, want 0", b.size())
	}
	if got := b.takeAll(); got != nil {
		t.Fatalf("takeAll of empty backlog: got %v, want nil", got)
	}

	b.add(anomalyMsg(1))
	b.add(anomalyMsg(2))
	b.add(anomalyMsg(3))

	if b.size() != 3 {
		t.Fatalf("size: got %d, want 3", b.size())
	}

	msgs := b.takeAll()
	if len(msgs) != 3 {
		t.Fatalf("taken: got %d, want 3", len(msgs))
	}
	for i, m := range msgs {
		want := fmt.Sprintf("event-%d", i+1)
		if string(m.payload) != want {
			t.Errorf("msg %d: got %s, want %s", i, m.payload, want)
		}
	}

	if b.size() != 0 {
		t.Errorf("size after takeAll: got %d, want 0", b.size())
	}
}

func TestBacklogOverflowDropsOldest(t *testing.T) {
	b := newBacklog(3)

	for i := 1; i <= 5; i++ {
		b.add(anomalyMsg(i))
	}

	if b.size() != 3 {
		t.Fatalf("size: got %d, want 3", b.size())
	}

	msgs := b.takeAll()
	want := []string{"event-3", "event-4", "event-5"}
	for i, m := range msgs {
		if string(m.payload) != want[i] {
			t.Errorf("msg %d: got %s, want %s", i, m.payload, want[i])
		}
	}
}

func TestBacklogReusableAfterTakeAll(t *testing.T) {
	b := newBacklog(2)

	b.add(anomalyMsg(1))
	b.takeAll()

	b.add(anomalyMsg(2))
	b.add(anomalyMsg(3))

	msgs := b.takeAll()
	if len(msgs) != 2 {
		t.Fatalf("taken: got %d, want 2", len(msgs))
	}
	if string(msgs[0].payload) != "event-2" || string(msgs[1].payload) != "event-3" {
		t.Errorf("unexpected order: %s, %s", msgs[0].payload, msgs[1].payload)
	}
}

func TestBacklogPreservesMessageFields(t *testing.T) {
	b := newBacklog(2)
	b.add(outbound{topic: TopicSystem, payload: []byte("x"), qos: 1, retained: true})

	msgs := b.takeAll()
	if len(msgs) != 1 {
		t.Fatalf("taken: got %d, want 1", len(msgs))
	}
	m := msgs[0]
	if m.topic != TopicSystem || m.qos != 1 || !m.retained {
		t.Errorf("fields not preserved: %+v", m)
	}
}
