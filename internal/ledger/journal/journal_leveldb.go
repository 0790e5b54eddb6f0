package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"insurechain/internal/ledger"
	dErrors "insurechain/pkg/domain-errors"
)

const (
	eventKeyPrefix = "event:"
	seqKey         = "journal:last_sequence"
)

// LevelDBJournal persists events so a restarted bridge or watcher can resume
// from its last processed sequence. Keys are zero-padded hex so the natural
// iterator order is sequence order.
type LevelDBJournal struct {
	mu   sync.Mutex
	db   *leveldb.DB
	last uint64
}

func OpenLevelDB(path string) (*LevelDBJournal, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "open journal")
	}
	j := &LevelDBJournal{db: db}
	if raw, err := db.Get([]byte(seqKey), nil); err == nil {
		if _, err := fmt.Sscanf(string(raw), "%d", &j.last); err != nil {
			db.Close()
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "decode journal sequence")
		}
	} else if err != leveldb.ErrNotFound {
		db.Close()
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "read journal sequence")
	}
	return j, nil
}

func eventKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%016x", eventKeyPrefix, seq))
}

func (j *LevelDBJournal) Append(_ context.Context, event ledger.Event) (uint64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	seq := j.last + 1
	event.Sequence = seq
	raw, err := json.Marshal(event)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "encode event")
	}

	batch := new(leveldb.Batch)
	batch.Put(eventKey(seq), raw)
	batch.Put([]byte(seqKey), []byte(fmt.Sprintf("%d", seq)))
	if err := j.db.Write(batch, nil); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "append event")
	}
	j.last = seq
	return seq, nil
}

func (j *LevelDBJournal) Read(_ context.Context, from uint64, limit int) ([]ledger.Event, error) {
	iter := j.db.NewIterator(util.BytesPrefix([]byte(eventKeyPrefix)), nil)
	defer iter.Release()

	var out []ledger.Event
	for iter.Next() {
		var event ledger.Event
		if err := json.Unmarshal(iter.Value(), &event); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "decode event")
		}
		if event.Sequence <= from {
			continue
		}
		out = append(out, event)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	if err := iter.Error(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "iterate journal")
	}
	return out, nil
}

func (j *LevelDBJournal) LastSequence(_ context.Context) (uint64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last, nil
}

func (j *LevelDBJournal) Close() error {
	return j.db.Close()
}
