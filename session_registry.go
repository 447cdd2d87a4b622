package portfoliolive

import (
	"errors"
	"log"
	"slices"
	"strings"
	"sync"
	"time"
)

const (
	SessionsRecord    = "visitor-sessions"
	DefaultSessionTTL = time.Hour
)

type sessionEntry struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
}

// SessionRegistry remembers when each client id was last seen.
// A session is active while now-lastSeen < ttl.
type SessionRegistry struct {
	mu       sync.Mutex
	records  RecordStore
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]time.Time
}

func NewSessionRegistry(records RecordStore, ttl time.Duration) *SessionRegistry {
	return NewSessionRegistryWithClock(records, ttl, time.Now)
}

func NewSessionRegistryWithClock(records RecordStore, ttl time.Duration, now func() time.Time) *SessionRegistry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	r := &SessionRegistry{
		records:  records,
		ttl:      ttl,
		now:      now,
		sessions: map[string]time.Time{},
	}
	r.load()
	return r
}

func (r *SessionRegistry) TTL() time.Duration {
	return r.ttl
}

func (r *SessionRegistry) IsActive(clientID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	lastSeen, ok := r.sessions[clientID]
	return ok && r.activeSync(lastSeen, r.now())
}

// Touch marks the client as seen now and persists the whole set.
func (r *SessionRegistry) Touch(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[clientID] = r.now()
	r.persistSync()
}

// SweepExpired drops every session whose ttl has elapsed and reports how many went.
func (r *SessionRegistry) SweepExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	removed := 0
	for id, lastSeen := range r.sessions {
		if !r.activeSync(lastSeen, now) {
			delete(r.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		r.persistSync()
	}
	return removed
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *SessionRegistry) activeSync(lastSeen, now time.Time) bool {
	return now.Sub(lastSeen) < r.ttl
}

func (r *SessionRegistry) load() {
	var entries []sessionEntry
	err := r.records.Load(SessionsRecord, &entries)
	if errors.Is(err, ErrRecordNotFound) {
		log.Println("No visitor sessions stored yet")
		return
	}
	if err != nil {
		log.Printf("Could not load visitor sessions, starting empty: %v", err)
		return
	}

	now := r.now()
	dropped := 0
	for _, e := range entries {
		lastSeen := time.UnixMilli(e.Timestamp)
		if e.ID == "" || !r.activeSync(lastSeen, now) {
			dropped++
			continue
		}
		r.sessions[e.ID] = lastSeen
	}
	log.Printf("Loaded %d visitor sessions, dropped %d expired", len(r.sessions), dropped)
	if dropped > 0 {
		r.persistSync()
	}
	ActiveSessions.Set(float64(len(r.sessions)))
}

func (r *SessionRegistry) persistSync() {
	entries := make([]sessionEntry, 0, len(r.sessions))
	for id, lastSeen := range r.sessions {
		entries = append(entries, sessionEntry{ID: id, Timestamp: lastSeen.UnixMilli()})
	}
	slices.SortFunc(entries, func(a, b sessionEntry) int {
		return strings.Compare(a.ID, b.ID)
	})
	ActiveSessions.Set(float64(len(entries)))
	if err := r.records.Save(SessionsRecord, entries); err != nil {
		PersistFailures.WithLabelValues(SessionsRecord).Inc()
		log.Printf("Error saving %d visitor sessions: %v", len(entries), err)
	}
}
