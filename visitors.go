package portfoliolive

import (
	"fmt"
	"strings"

	"github.com/Arceliar/phony"
)

// Visit is the outcome of one recorded request.
type Visit struct {
	Count   int64
	Counted bool
}

// VisitTracker decides whether a request is a new visit.
//
// A client counts once per session; every request slides the session
// window forward. The check, touch and increment run inside the actor,
// so two concurrent first requests for one id cannot both count.
type VisitTracker struct {
	phony.Inbox
	counter  *CounterStore
	sessions *SessionRegistry
	events   EventPublisher
}

func NewVisitTracker(counter *CounterStore, sessions *SessionRegistry, events EventPublisher) *VisitTracker {
	return &VisitTracker{
		counter:  counter,
		sessions: sessions,
		events:   events,
	}
}

func (v *VisitTracker) RecordVisit(clientID string) (Visit, error) {
	if strings.TrimSpace(clientID) == "" {
		VisitsRecorded.WithLabelValues("rejected").Inc()
		return Visit{}, fmt.Errorf("%w: clientId is required", ErrInvalidInput)
	}

	var visit Visit
	phony.Block(v, func() {
		isNew := !v.sessions.IsActive(clientID)
		v.sessions.Touch(clientID)
		if isNew {
			v.counter.Increment()
		}
		visit = Visit{Count: v.counter.Get(), Counted: isNew}

		if !isNew {
			VisitsRecorded.WithLabelValues("repeat").Inc()
			return
		}
		VisitsRecorded.WithLabelValues("new").Inc()
		// published inside the actor so listeners see counts in order
		if v.events != nil {
			v.events.Publish(NewEventWithParam(VisitCountedEvent, visit.Count))
		}
	})
	return visit, nil
}

func (v *VisitTracker) Count() int64 {
	return v.counter.Get()
}
