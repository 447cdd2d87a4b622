package portfoliolive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultWriteRetries    = 3
	defaultWriteRetryDelay = 50 * time.Millisecond
)

// RecordStore keeps small named JSON records.
type RecordStore interface {
	// Load decodes the named record into v. Absent records yield ErrRecordNotFound,
	// unreadable ones ErrStorageUnavailable.
	Load(name string, v any) error
	// Save replaces the named record with v.
	Save(name string, v any) error
	Close() error
}

// FileRecordStore keeps every record in <dir>/<name>.json.
type FileRecordStore struct {
	dir        string
	retries    uint64
	retryDelay time.Duration
}

func NewFileRecordStore(dir string) *FileRecordStore {
	return &FileRecordStore{
		dir:        dir,
		retries:    defaultWriteRetries,
		retryDelay: defaultWriteRetryDelay,
	}
}

func (s *FileRecordStore) Path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *FileRecordStore) Load(name string, v any) error {
	data, err := os.ReadFile(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", name, ErrRecordNotFound)
	}
	if err != nil {
		return fmt.Errorf("%w: reading %s: %v", ErrStorageUnavailable, name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", ErrStorageUnavailable, name, err)
	}
	return nil
}

func (s *FileRecordStore) Save(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %v", ErrStorageUnavailable, name, err)
	}

	write := func() error {
		return s.writeAtomically(s.Path(name), data)
	}
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(s.retryDelay), s.retries)
	err = backoff.RetryNotify(write, policy, func(err error, d time.Duration) {
		log.Printf("Retrying write of %s in %v: %v", name, d, err)
	})
	if err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrStorageUnavailable, name, err)
	}
	return nil
}

func (s *FileRecordStore) Close() error {
	return nil
}

// readers never observe a half-written record: the data lands in a temp file
// in the same directory and is renamed over the target
func (s *FileRecordStore) writeAtomically(fn string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, filepath.Base(fn)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), fn)
}
