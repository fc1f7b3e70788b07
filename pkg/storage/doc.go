// Package storage provides the local record store of a scrape run.
//
// RecordStore persists one ProcessedRecord per sequence index in a single JSON
// object. Writes are idempotent: storing the same index twice keeps only the
// last record. The backing file is rewritten atomically on every write, so the
// cost of a write grows with the number of stored records and the store is not
// safe for concurrent writers across processes.
//
// Usage:
//
//	store := storage.NewRecordStore("lc_problems.json", log)
//	if err := store.Store(43, record); err != nil {
//	    return err
//	}
package storage
