package portfoliolive

import (
	"log"
	"sync"
	"sync/atomic"
	"time"
)

const DefaultSweepInterval = 15 * time.Minute

// SessionSweeper reclaims expired sessions on a fixed interval, independent
// of request traffic. Sweeping never touches the visitor count.
type SessionSweeper struct {
	registry *SessionRegistry
	interval time.Duration
	events   EventPublisher
	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewSessionSweeper(registry *SessionRegistry, interval time.Duration, events EventPublisher) *SessionSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &SessionSweeper{
		registry: registry,
		interval: interval,
		events:   events,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *SessionSweeper) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	log.Printf("Sweeping expired sessions every %v", s.interval)
	go s.sweepForever()
}

// Stop ends the background loop and waits for it. Safe to call more than once.
func (s *SessionSweeper) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	if s.started.Load() {
		<-s.done
	}
}

// RunOnce sweeps synchronously and returns the number of sessions removed.
func (s *SessionSweeper) RunOnce() int {
	removed := s.registry.SweepExpired()
	if removed == 0 {
		return 0
	}
	SessionsSwept.Add(float64(removed))
	log.Printf("Swept %d expired sessions, %d remain", removed, s.registry.Len())
	if s.events != nil {
		s.events.Publish(NewEventWithParam(SessionsSweptEvent, removed))
	}
	return removed
}

func (s *SessionSweeper) sweepForever() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.RunOnce()
		}
	}
}
