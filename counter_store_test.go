package portfoliolive

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterStoreStartsAtZeroAndWritesTheRecord(t *testing.T) {
	records := NewFileRecordStore(t.TempDir())

	counter := NewCounterStore(records)
	assert.Equal(t, int64(0), counter.Get())

	var rec counterRecordBody
	require.NoError(t, records.Load(CounterRecord, &rec))
	assert.Equal(t, int64(0), rec.Count)
}

func TestCounterStoreSurvivesARestart(t *testing.T) {
	dir := t.TempDir()

	counter := NewCounterStore(NewFileRecordStore(dir))
	assert.Equal(t, int64(1), counter.Increment())
	assert.Equal(t, int64(2), counter.Increment())

	restarted := NewCounterStore(NewFileRecordStore(dir))
	assert.Equal(t, int64(2), restarted.Get())
	assert.Equal(t, int64(3), restarted.Increment())
}

func TestCounterStoreHealsACorruptRecord(t *testing.T) {
	records := NewFileRecordStore(t.TempDir())
	require.NoError(t, os.WriteFile(records.Path(CounterRecord), []byte("garbage"), 0o644))

	counter := NewCounterStore(records)
	assert.Equal(t, int64(0), counter.Get())

	var rec counterRecordBody
	require.NoError(t, records.Load(CounterRecord, &rec), "the corrupt record is replaced")
	assert.Equal(t, int64(0), rec.Count)
}

func TestCounterStoreRejectsANegativeRecord(t *testing.T) {
	records := NewFileRecordStore(t.TempDir())
	require.NoError(t, records.Save(CounterRecord, counterRecordBody{Count: -4}))

	assert.Equal(t, int64(0), NewCounterStore(records).Get())
}

func TestCounterStoreAdvancesWhenTheWriteFails(t *testing.T) {
	dir := t.TempDir()
	records := &failingRecordStore{RecordStore: NewFileRecordStore(dir)}
	counter := NewCounterStore(records)
	counter.Increment()

	records.failSaves = true
	assert.Equal(t, int64(2), counter.Increment())
	assert.Equal(t, int64(2), counter.Get())

	// what survives a crash is the last successful write
	assert.Equal(t, int64(1), NewCounterStore(NewFileRecordStore(dir)).Get())
}
