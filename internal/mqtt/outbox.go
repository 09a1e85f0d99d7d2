package mqtt

import (
	"log"
	"sync"

	"github.com/sweeney/helium/internal/history"
)

// message is a serialized MQTT message held for replay after reconnection.
type message struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox holds messages while the broker is unreachable. When full the
// oldest message is dropped. Safe for concurrent use: paho calls the
// connect handler from its own goroutine.
type outbox struct {
	mu       sync.Mutex
	ring     *history.Ring[message]
	overflow bool // true if any message was dropped since last drain
}

func newOutbox(capacity int) *outbox {
	return &outbox{ring: history.NewRing[message](capacity)}
}

func (o *outbox) push(m message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ring.Push(m) && !o.overflow {
		log.Printf("mqtt: buffer full (%d messages), dropping oldest", o.ring.Cap())
		o.overflow = true
	}
}

func (o *outbox) drain() []message {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.overflow = false
	return o.ring.Drain()
}

func (o *outbox) len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ring.Len()
}
