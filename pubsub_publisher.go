package portfoliolive

import "github.com/cskr/pubsub/v2"

// EventPublisher is what the domain needs from the event bus.
type EventPublisher interface {
	Publish(e Event)
}

type PubSubPublisher struct {
	events *pubsub.PubSub[string, Event]
}

func NewPubSubPublisher(events *pubsub.PubSub[string, Event]) *PubSubPublisher {
	return &PubSubPublisher{
		events: events,
	}
}

// Publish never waits for subscribers: one whose buffer is full misses the
// event. Visits are published from inside the tracker, which must not stall
// behind a slow reader.
func (p *PubSubPublisher) Publish(e Event) {
	p.events.TryPub(e, Topic)
}
