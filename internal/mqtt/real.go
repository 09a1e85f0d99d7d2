package mqtt

import (
	"fmt"
	"log"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/time/rate"

	"github.com/sweeney/helium/internal/telemetry"
)

// Options configure the broker connection.
type Options struct {
	Broker     string
	ClientID   string
	BufferSize int // messages held while offline
}

// RealPublisher publishes to an actual MQTT broker. It never blocks
// startup on the broker: messages published while disconnected are held in
// an outbox and replayed, oldest first, when the connection comes up.
type RealPublisher struct {
	client paho.Client
	out    *outbox
	warn   *rate.Limiter
}

// NewRealPublisher starts connecting to the broker in the background.
func NewRealPublisher(o Options) *RealPublisher {
	if o.ClientID == "" {
		o.ClientID = "helium"
	}
	if o.BufferSize <= 0 {
		o.BufferSize = 256
	}
	p := &RealPublisher{
		out:  newOutbox(o.BufferSize),
		warn: rate.NewLimiter(rate.Every(time.Minute), 1),
	}

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(func(c paho.Client) {
			log.Printf("mqtt: connected to %s", o.Broker)
			p.flush(c)
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

func (p *RealPublisher) flush(c paho.Client) {
	msgs := p.out.drain()
	if len(msgs) == 0 {
		return
	}
	log.Printf("mqtt: replaying %d buffered messages", len(msgs))
	for i, m := range msgs {
		token := c.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(5*time.Second) || token.Error() != nil {
			// Keep what did not go out for the next connection.
			for _, rest := range msgs[i:] {
				p.out.push(rest)
			}
			return
		}
	}
}

func (p *RealPublisher) publish(m message) error {
	if !p.client.IsConnectionOpen() {
		p.out.push(m)
		if p.warn.Allow() {
			log.Printf("mqtt: offline, %d messages buffered", p.out.len())
		}
		return nil
	}
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(5 * time.Second) {
		p.out.push(m)
		return fmt.Errorf("%w: publish %s timeout", telemetry.ErrPersist, m.topic)
	}
	if err := token.Error(); err != nil {
		p.out.push(m)
		return fmt.Errorf("%w: publish %s: %w", telemetry.ErrPersist, m.topic, err)
	}
	return nil
}

// PersistSensorSnapshot publishes a sensor row.
func (p *RealPublisher) PersistSensorSnapshot(s telemetry.SensorSnapshot) error {
	payload, err := FormatSensorPayload(s)
	if err != nil {
		return fmt.Errorf("%w: format sensor payload: %w", telemetry.ErrPersist, err)
	}
	// QoS 0 (at-most-once), not retained
	return p.publish(message{topic: TopicSensors, payload: payload})
}

// PersistFixSnapshot publishes a fix row. Retained so late subscribers
// (the recovery team) see the last position immediately.
func (p *RealPublisher) PersistFixSnapshot(f telemetry.FixSnapshot) error {
	payload, err := FormatFixPayload(f)
	if err != nil {
		return fmt.Errorf("%w: format fix payload: %w", telemetry.ErrPersist, err)
	}
	return p.publish(message{topic: TopicFixes, payload: payload, retained: true})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) for lifecycle events
	return p.publish(message{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered returns how many messages are waiting for the broker.
func (p *RealPublisher) Buffered() int {
	return p.out.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
