package portfoliolive

import (
	"errors"
	"sync"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) Named(name string) []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	res := []Event{}
	for _, e := range p.events {
		if e.Name == name {
			res = append(res, e)
		}
	}
	return res
}

// failingRecordStore wraps a store and fails every Save while failSaves is set.
type failingRecordStore struct {
	RecordStore
	mu        sync.Mutex
	failSaves bool
	saves     int
}

func (s *failingRecordStore) Save(name string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.failSaves {
		return ErrStorageUnavailable
	}
	return s.RecordStore.Save(name, v)
}

type fakeSubscriber struct {
	id       string
	mu       sync.Mutex
	received []VisitorCountMessage
	broken   bool
}

func newFakeSubscriber(id string) *fakeSubscriber {
	return &fakeSubscriber{id: id}
}

func (s *fakeSubscriber) ID() string {
	return s.id
}

func (s *fakeSubscriber) Send(msg VisitorCountMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.broken {
		return errors.New("broken pipe")
	}
	s.received = append(s.received, msg)
	return nil
}

func (s *fakeSubscriber) Break() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broken = true
}

func (s *fakeSubscriber) Received() []VisitorCountMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]VisitorCountMessage{}, s.received...)
}

// testService wires the domain objects the way main does, on a temp dir.
type testService struct {
	dir      string
	clock    *fakeClock
	records  RecordStore
	counter  *CounterStore
	sessions *SessionRegistry
	tracker  *VisitTracker
	events   *recordingPublisher
}

func newTestService(dir string, clock *fakeClock) *testService {
	records := NewFileRecordStore(dir)
	counter := NewCounterStore(records)
	sessions := NewSessionRegistryWithClock(records, DefaultSessionTTL, clock.Now)
	events := &recordingPublisher{}
	return &testService{
		dir:      dir,
		clock:    clock,
		records:  records,
		counter:  counter,
		sessions: sessions,
		tracker:  NewVisitTracker(counter, sessions, events),
		events:   events,
	}
}

// stalledSubscriber accepts the first message and then blocks every Send
// until released, like a viewer whose socket stopped draining.
type stalledSubscriber struct {
	id       string
	mu       sync.Mutex
	sent     int
	release  chan struct{}
	stalling chan struct{}
	once     sync.Once
}

func newStalledSubscriber(id string) *stalledSubscriber {
	return &stalledSubscriber{
		id:       id,
		release:  make(chan struct{}),
		stalling: make(chan struct{}),
	}
}

func (s *stalledSubscriber) ID() string {
	return s.id
}

func (s *stalledSubscriber) Send(msg VisitorCountMessage) error {
	s.mu.Lock()
	s.sent++
	first := s.sent == 1
	s.mu.Unlock()
	if first {
		return nil
	}
	s.once.Do(func() { close(s.stalling) })
	<-s.release
	return nil
}

func (s *stalledSubscriber) Release() {
	close(s.release)
}
