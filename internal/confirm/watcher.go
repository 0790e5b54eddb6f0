// Package confirm watches ledger journal progress and declares events final
// once they are buried deep enough. Downstream consumers that cannot tolerate
// reordering (payout batches, external notifications) key off confirmed
// blocks rather than the live feed.
package confirm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	dErrors "insurechain/pkg/domain-errors"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultThreshold    = 12
)

// statsResponse is the slice of the ledger stats endpoint the watcher reads.
type statsResponse struct {
	LastSequence uint64 `json:"last_sequence"`
}

// Block is a batch of consecutive sequences confirmed in one tick.
type Block struct {
	FromSequence uint64
	ToSequence   uint64
	ConfirmedAt  time.Time
}

// Size returns the number of events in the block.
func (b Block) Size() uint64 {
	return b.ToSequence - b.FromSequence + 1
}

// Watcher polls the ledger stats endpoint. An event at sequence S is
// confirmed once the journal head reaches S+threshold; each tick groups the
// newly confirmed sequences into one block and runs the post-confirmation
// steps.
type Watcher struct {
	rpcURL    string
	threshold uint64
	interval  time.Duration
	client    *http.Client
	logger    *slog.Logger

	lastProcessed uint64
}

type Option func(w *Watcher)

func WithThreshold(threshold uint64) Option {
	return func(w *Watcher) {
		w.threshold = threshold
	}
}

func WithPollInterval(interval time.Duration) Option {
	return func(w *Watcher) {
		w.interval = interval
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(w *Watcher) {
		w.client = client
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// New constructs a watcher against a ledger stats endpoint.
func New(rpcURL string, opts ...Option) *Watcher {
	w := &Watcher{
		rpcURL:    rpcURL,
		threshold: DefaultThreshold,
		interval:  DefaultPollInterval,
		client:    &http.Client{Timeout: 10 * time.Second},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// LastProcessed returns the highest sequence confirmed so far.
func (w *Watcher) LastProcessed() uint64 {
	return w.lastProcessed
}

// Run polls until the context is cancelled. Poll failures are logged and
// retried on the next tick.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("confirmation watcher started",
		"rpc_url", w.rpcURL, "threshold", w.threshold, "poll_interval", w.interval)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Tick(ctx); err != nil {
				w.logger.Error("confirmation tick failed", "error", err)
			}
		}
	}
}

// Tick performs one poll cycle. It returns the confirmed block, or nil when
// nothing new reached confirmation depth.
func (w *Watcher) Tick(ctx context.Context) (*Block, error) {
	head, err := w.fetchHead(ctx)
	if err != nil {
		return nil, err
	}
	if head <= w.threshold {
		return nil, nil
	}

	confirmedHead := head - w.threshold
	if confirmedHead <= w.lastProcessed {
		return nil, nil
	}

	block := &Block{
		FromSequence: w.lastProcessed + 1,
		ToSequence:   confirmedHead,
		ConfirmedAt:  time.Now().UTC(),
	}
	w.logger.Info("block confirmed",
		"from_sequence", block.FromSequence,
		"to_sequence", block.ToSequence,
		"size", block.Size(),
		"journal_head", head)

	w.postConfirmation(block)
	w.lastProcessed = confirmedHead
	return block, nil
}

func (w *Watcher) fetchHead(ctx context.Context) (uint64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.rpcURL, nil)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build stats request")
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "stats endpoint unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, dErrors.Newf(dErrors.CodeInternal, "stats endpoint returned %d", resp.StatusCode)
	}

	var stats statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to decode stats response")
	}
	return stats.LastSequence, nil
}

// postConfirmation runs the follow-up steps for a confirmed block. The steps
// are logged simulations: the real integrations (payout status refresh,
// verification trigger, mirror nudge, holder notification) live outside this
// deployment.
func (w *Watcher) postConfirmation(block *Block) {
	ref := fmt.Sprintf("%d-%d", block.FromSequence, block.ToSequence)
	w.logger.Info("refreshing claim statuses", "block", ref)
	w.logger.Info("triggering policy verification", "block", ref)
	w.logger.Info("nudging mirror synchronization", "block", ref)
	w.logger.Info("notifying holders of confirmed events", "block", ref, "events", block.Size())
}
