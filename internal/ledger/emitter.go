package ledger

import (
	"context"

	dErrors "insurechain/pkg/domain-errors"
)

// Journal is the append-only event log the emitter writes through. Sequences
// are assigned on append.
type Journal interface {
	Append(ctx context.Context, event Event) (uint64, error)
	Read(ctx context.Context, from uint64, limit int) ([]Event, error)
	LastSequence(ctx context.Context) (uint64, error)
}

// EventSink receives every lifecycle event the ledger emits.
type EventSink interface {
	Publish(ctx context.Context, event Event) (Event, error)
}

// Emitter journals events and forwards them to the sync bridge feed. The
// feed channel must be drained by a running worker; it is buffered so brief
// consumer stalls do not block ledger operations.
type Emitter struct {
	journal Journal
	feed    chan<- Event
}

func NewEmitter(journal Journal, feed chan<- Event) *Emitter {
	return &Emitter{journal: journal, feed: feed}
}

// Publish appends the event to the journal, stamps the assigned sequence,
// and hands it to the feed. The journal write comes first: the sequence is
// part of the event the bridge consumes.
func (e *Emitter) Publish(ctx context.Context, event Event) (Event, error) {
	seq, err := e.journal.Append(ctx, event)
	if err != nil {
		return event, dErrors.Wrap(err, dErrors.CodeInternal, "journal event")
	}
	event.Sequence = seq
	if e.feed != nil {
		select {
		case e.feed <- event:
		case <-ctx.Done():
			return event, ctx.Err()
		}
	}
	return event, nil
}
