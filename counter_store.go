package portfoliolive

import (
	"errors"
	"fmt"
	"log"
	"sync"
)

const CounterRecord = "visitor-count"

type counterRecordBody struct {
	Count int64 `json:"count"`
}

// CounterStore holds the total visit count and writes it out after every change.
//
// If the process dies between the in-memory increment and the write, the
// persisted value lags by the increments since the last successful write.
type CounterStore struct {
	mu      sync.Mutex
	records RecordStore
	count   int64
}

// NewCounterStore loads the persisted count. A missing or corrupt record
// resets the count to 0 and writes it back; startup never fails here.
func NewCounterStore(records RecordStore) *CounterStore {
	c := &CounterStore{records: records}

	var rec counterRecordBody
	err := records.Load(CounterRecord, &rec)
	if err == nil && rec.Count < 0 {
		err = fmt.Errorf("%w: negative count %d", ErrStorageUnavailable, rec.Count)
	}
	switch {
	case err == nil:
		c.count = rec.Count
		log.Printf("Loaded visitor count: %d", c.count)
	case errors.Is(err, ErrRecordNotFound):
		log.Println("No visitor count stored yet, starting from 0")
		c.persistSync()
	default:
		log.Printf("Could not load visitor count, starting from 0: %v", err)
		c.persistSync()
	}
	VisitorCount.Set(float64(c.count))
	return c
}

func (c *CounterStore) Get() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func (c *CounterStore) Increment() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	c.persistSync()
	VisitorCount.Set(float64(c.count))
	return c.count
}

// a failed write is logged and the in-memory count stays ahead
func (c *CounterStore) persistSync() {
	if err := c.records.Save(CounterRecord, counterRecordBody{Count: c.count}); err != nil {
		PersistFailures.WithLabelValues(CounterRecord).Inc()
		log.Printf("Error saving visitor count %d: %v", c.count, err)
	}
}
