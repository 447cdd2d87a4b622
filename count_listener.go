package portfoliolive

import (
	"log"

	"github.com/cskr/pubsub/v2"
)

// CountListener forwards counted visits from the event bus to the live viewers.
type CountListener struct {
	events       *pubsub.PubSub[string, Event]
	broadcaster  *Broadcaster
	subscription chan Event
	done         chan struct{}
}

func NewCountListener(events *pubsub.PubSub[string, Event], broadcaster *Broadcaster) *CountListener {
	return &CountListener{
		events:      events,
		broadcaster: broadcaster,
		done:        make(chan struct{}),
	}
}

// Start subscribes before returning, so no event published afterwards is missed.
func (l *CountListener) Start() {
	l.subscription = l.events.Sub(Topic)
	go l.listenForever()
}

func (l *CountListener) Stop() {
	if l.subscription == nil {
		return
	}
	l.events.Unsub(l.subscription, Topic)
	<-l.done
}

func (l *CountListener) listenForever() {
	defer close(l.done)
	for event := range l.subscription {
		if event.Name != VisitCountedEvent {
			continue
		}
		count, ok := event.Properties["param"].(int64)
		if !ok {
			log.Printf("Ignoring %s event without a count: %v", event.Name, event.Properties)
			continue
		}
		l.broadcaster.Publish(count)
	}
}
