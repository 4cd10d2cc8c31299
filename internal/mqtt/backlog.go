package mqtt

import "log"

// outbound is a formatted message waiting for the broker connection to
// come back: anomaly events at QoS 0 and lifecycle events at QoS 1 share
// the same queue so replay preserves their original order.
type outbound struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// backlog holds outbound messages while the broker is unreachable. It is
// bounded: once full, each add evicts the oldest entry, on the theory
// that the newest diagnostic state is the one worth delivering. Not safe
// for concurrent use, the publisher serializes access.
type backlog struct {
	msgs    []outbound
	max     int
	dropped bool
}

func newBacklog(max int) *backlog {
	return &backlog{max: max}
}

func (b *backlog) add(msg outbound) {
	if len(b.msgs) == b.max {
		if !b.dropped {
			log.Printf("mqtt: backlog full (%d messages), dropping oldest", b.max)
			b.dropped = true
		}
		copy(b.msgs, b.msgs[1:])
		b.msgs[len(b.msgs)-1] = msg
		return
	}
	b.msgs = append(b.msgs, msg)
}

// takeAll empties the backlog and returns its contents oldest first.
func (b *backlog) takeAll() []outbound {
	if len(b.msgs) == 0 {
		return nil
	}
	msgs := b.msgs
	b.msgs = nil
	b.dropped = false
	return msgs
}

func (b *backlog) size() int {
	return len(b.msgs)
}
