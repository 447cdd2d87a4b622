package portfoliolive

import (
	"fmt"
	"log"

	"github.com/Arceliar/phony"
)

const VisitorCountType = "visitorCount"

// VisitorCountMessage is the only message pushed to live viewers.
type VisitorCountMessage struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

func NewVisitorCountMessage(count int64) VisitorCountMessage {
	return VisitorCountMessage{Type: VisitorCountType, Count: count}
}

// Subscriber is one open live-update connection.
type Subscriber interface {
	ID() string
	Send(msg VisitorCountMessage) error
}

type CountReader interface {
	Get() int64
}

// Broadcaster is the set of live subscribers. It knows nothing about the
// transport behind a Subscriber.
type Broadcaster struct {
	phony.Inbox
	counter     CountReader
	subscribers map[string]Subscriber
}

func NewBroadcaster(counter CountReader) *Broadcaster {
	return &Broadcaster{
		counter:     counter,
		subscribers: map[string]Subscriber{},
	}
}

// Subscribe registers sub and sends it the current count. A subscriber that
// cannot take that first message is not registered.
func (b *Broadcaster) Subscribe(sub Subscriber) error {
	var err error
	phony.Block(b, func() {
		if sendErr := sub.Send(NewVisitorCountMessage(b.counter.Get())); sendErr != nil {
			err = fmt.Errorf("%w: %v", ErrConnectionDropped, sendErr)
			return
		}
		b.subscribers[sub.ID()] = sub
		b.membershipChangedSync()
	})
	return err
}

// Unsubscribe is a no-op for unknown or already removed subscribers.
func (b *Broadcaster) Unsubscribe(sub Subscriber) {
	phony.Block(b, func() {
		if _, ok := b.subscribers[sub.ID()]; !ok {
			return
		}
		delete(b.subscribers, sub.ID())
		b.membershipChangedSync()
	})
}

// Publish sends count to everyone; subscribers that fail are dropped.
func (b *Broadcaster) Publish(count int64) {
	phony.Block(b, func() {
		msg := NewVisitorCountMessage(count)
		dropped := 0
		for id, sub := range b.subscribers {
			if err := sub.Send(msg); err != nil {
				log.Printf("Dropping live subscriber %s: %v", id, err)
				delete(b.subscribers, id)
				dropped++
			}
		}
		if dropped > 0 {
			SubscribersDropped.Add(float64(dropped))
			b.membershipChangedSync()
		}
	})
}

func (b *Broadcaster) Len() int {
	var n int
	phony.Block(b, func() {
		n = len(b.subscribers)
	})
	return n
}

func (b *Broadcaster) membershipChangedSync() {
	LiveSubscribers.Set(float64(len(b.subscribers)))
}
