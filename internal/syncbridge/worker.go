package syncbridge

import (
	"context"
	"log/slog"

	"insurechain/internal/ledger"
)

// Applier consumes one committed ledger event. The local Bridge and the
// Kafka Publisher both satisfy it, so the worker does not care whether the
// mirror lives in-process or behind a broker.
type Applier interface {
	Apply(ctx context.Context, event ledger.Event) error
}

// Worker drains the ledger's event feed and hands each event to the applier.
// Failures are logged and the worker moves on: the mirror is eventually
// consistent and a failed event can be replayed from the journal.
type Worker struct {
	feed    <-chan ledger.Event
	applier Applier
	logger  *slog.Logger
}

func NewWorker(feed <-chan ledger.Event, applier Applier, logger *slog.Logger) *Worker {
	return &Worker{feed: feed, applier: applier, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.feed:
			if err := w.applier.Apply(ctx, event); err != nil && w.logger != nil {
				w.logger.Error("failed to apply ledger event", "type", event.Type, "sequence", event.Sequence, "error", err)
			}
		}
	}
}
