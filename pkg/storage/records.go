package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"sync"

	"lcscraper/internal/atomicfile"
	"lcscraper/pkg/logger"
	"lcscraper/pkg/models"
)

// RecordStore keeps processed records in a JSON object keyed by sequence index.
// Every Store call rewrites the whole file.
type RecordStore struct {
	mu     sync.Mutex
	path   string
	logger logger.Logger
}

// IndexedRecord pairs a record with the sequence index it is stored under
type IndexedRecord struct {
	Index  int
	Record models.ProcessedRecord
}

// NewRecordStore creates a record store backed by the file at path
func NewRecordStore(path string, log logger.Logger) *RecordStore {
	if log == nil {
		log = logger.GetLogger()
	}
	return &RecordStore{path: path, logger: log}
}

// Path returns the backing file location
func (s *RecordStore) Path() string {
	return s.path
}

// Store writes record under index, replacing any previous record for it.
// Entries already in the file are written back unchanged, including ones
// that do not decode as a record.
func (s *RecordStore) Store(index int, record models.ProcessedRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record %d: %w", index, err)
	}

	raw := s.readRaw()
	raw[strconv.Itoa(index)] = encoded

	data, err := json.MarshalIndent(raw, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	if err := atomicfile.Write(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}

	s.logger.DebugWithFields("Record stored", map[string]interface{}{
		"index": index,
		"num":   record.Num,
		"total": len(raw),
	})
	return nil
}

// Load returns all stored records. A missing, empty or unreadable file is an
// empty collection.
func (s *RecordStore) Load() map[string]models.ProcessedRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decode(s.readRaw())
}

// Records returns the stored records ordered by index
func (s *RecordStore) Records() []IndexedRecord {
	return s.ordered(s.Load())
}

func (s *RecordStore) ordered(records map[string]models.ProcessedRecord) []IndexedRecord {
	out := make([]IndexedRecord, 0, len(records))
	for key, record := range records {
		index, err := strconv.Atoi(key)
		if err != nil {
			s.logger.WarnWithFields("Skipping record with non-numeric key", map[string]interface{}{
				"key": key,
			})
			continue
		}
		out = append(out, IndexedRecord{Index: index, Record: record})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Print writes the stored records to w as an indented JSON object with keys
// in ascending index order
func (s *RecordStore) Print(w io.Writer) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("record file %s was not found", s.path)
		}
		return fmt.Errorf("failed to read records: %w", err)
	}
	if !json.Valid(data) {
		return fmt.Errorf("record file %s does not contain valid JSON", s.path)
	}

	records := s.Records()

	var buf bytes.Buffer
	buf.WriteString("{")
	for i, rec := range records {
		if i > 0 {
			buf.WriteString(",")
		}
		body, err := json.MarshalIndent(rec.Record, "    ", "    ")
		if err != nil {
			return fmt.Errorf("failed to encode record %d: %w", rec.Index, err)
		}
		fmt.Fprintf(&buf, "\n    %q: %s", strconv.Itoa(rec.Index), body)
	}
	if len(records) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")

	_, err = w.Write(buf.Bytes())
	return err
}

func (s *RecordStore) readRaw() map[string]json.RawMessage {
	raw := make(map[string]json.RawMessage)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.WithError(err).Warn("Record file unreadable, starting from an empty collection")
		}
		return raw
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return raw
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.WithError(err).Warn("Record file is not valid JSON, starting from an empty collection")
		return make(map[string]json.RawMessage)
	}
	return raw
}

func (s *RecordStore) decode(raw map[string]json.RawMessage) map[string]models.ProcessedRecord {
	records := make(map[string]models.ProcessedRecord, len(raw))
	for key, value := range raw {
		var record models.ProcessedRecord
		if err := json.Unmarshal(value, &record); err != nil {
			s.logger.WarnWithFields("Skipping record that does not decode", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
			continue
		}
		records[key] = record
	}
	return records
}
