package mirror

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	dErrors "insurechain/pkg/domain-errors"
)

// ErrNotFound is returned when no record exists under the requested kind/id.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "mirror record not found")

// InMemoryStore is the default single-instance mirror backend.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewInMemoryStore constructs an empty in-memory mirror store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]Record)}
}

func recordKey(kind RecordKind, id string) string {
	return string(kind) + ":" + id
}

// Put inserts or replaces a record. CreatedAt is stamped only on first
// insert; UpdatedAt is refreshed on every write. Returns true when the write
// created a new record.
func (s *InMemoryStore) Put(ctx context.Context, kind RecordKind, id string, payload map[string]any, ref uuid.UUID) (bool, error) {
	if !kind.Valid() {
		return false, dErrors.Newf(dErrors.CodeInvalidInput, "unknown record kind %q", kind)
	}
	if id == "" {
		return false, dErrors.New(dErrors.CodeInvalidInput, "record id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	key := recordKey(kind, id)
	existing, ok := s.records[key]

	record := Record{
		Kind:             kind,
		ID:               id,
		Payload:          copyPayload(payload),
		AuthoritativeRef: ref,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if ok {
		record.CreatedAt = existing.CreatedAt
	}
	s.records[key] = record
	return !ok, nil
}

// Get returns the record stored under kind/id.
func (s *InMemoryStore) Get(ctx context.Context, kind RecordKind, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[recordKey(kind, id)]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyRecord(record)
	return &out, nil
}

// QueryByField scans a kind partition for records whose payload field equals
// value. Linear scan; the mirror is a convenience read store, not an index.
func (s *InMemoryStore) QueryByField(ctx context.Context, kind RecordKind, field, value string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for _, record := range s.records {
		if record.Kind != kind {
			continue
		}
		if got, ok := record.Payload[field].(string); ok && got == value {
			out = append(out, copyRecord(record))
		}
	}
	return out, nil
}

// Stats reports the record count per kind.
func (s *InMemoryStore) Stats(ctx context.Context) (map[RecordKind]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[RecordKind]int)
	for _, record := range s.records {
		counts[record.Kind]++
	}
	return counts, nil
}
