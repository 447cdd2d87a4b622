package portfoliolive

import (
	"context"
	"log"
	"time"
)

// OpenRecordStore picks the configured backend. A sqlite database that
// cannot be opened falls back to JSON files so the site still starts.
func OpenRecordStore(cfg *Config) RecordStore {
	if cfg.StorageDriver != StorageSQLite {
		log.Printf("Storing records as JSON files in %s", cfg.DataDir)
		return NewFileRecordStore(cfg.DataDir)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store, err := NewSQLiteRecordStore(ctx, cfg.SQLitePath)
	if err != nil {
		log.Printf("Could not open sqlite database %s, using JSON files in %s: %v", cfg.SQLitePath, cfg.DataDir, err)
		return NewFileRecordStore(cfg.DataDir)
	}
	log.Printf("Storing records in sqlite database %s", cfg.SQLitePath)
	return store
}
