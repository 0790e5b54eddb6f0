// Package journal provides the append-only event journal behind the ledger's
// event feed. Sequences start at 1 and are assigned by the journal on append;
// the confirmation watcher and a restarted sync bridge read from here.
package journal

import (
	"context"
	"sync"

	"insurechain/internal/ledger"
)

// InMemoryJournal is the default journal for single-process deployments and
// tests. Appends never fail.
type InMemoryJournal struct {
	mu     sync.RWMutex
	events []ledger.Event
}

func NewInMemoryJournal() *InMemoryJournal {
	return &InMemoryJournal{}
}

func (j *InMemoryJournal) Append(_ context.Context, event ledger.Event) (uint64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	seq := uint64(len(j.events) + 1)
	event.Sequence = seq
	j.events = append(j.events, event)
	return seq, nil
}

// Read returns up to limit events with sequence > from, in order.
func (j *InMemoryJournal) Read(_ context.Context, from uint64, limit int) ([]ledger.Event, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if from >= uint64(len(j.events)) {
		return nil, nil
	}
	out := j.events[from:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return append([]ledger.Event{}, out...), nil
}

func (j *InMemoryJournal) LastSequence(_ context.Context) (uint64, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return uint64(len(j.events)), nil
}
