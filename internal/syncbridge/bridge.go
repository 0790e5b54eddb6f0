// Package syncbridge carries committed ledger events into the
// organization-local mirror. The mirror is eventually consistent: the bridge
// applies events strictly after the ledger commit, and every write is
// idempotent so a replayed journal converges on the same mirror state.
package syncbridge

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"insurechain/internal/ledger"
	"insurechain/internal/mirror"
	"insurechain/internal/platform/metrics"
	dErrors "insurechain/pkg/domain-errors"
)

// MirrorWriter is the slice of the mirror service the bridge needs.
type MirrorWriter interface {
	Put(ctx context.Context, kind mirror.RecordKind, id string, payload map[string]any, ref uuid.UUID) error
	Get(ctx context.Context, kind mirror.RecordKind, id string) (*mirror.Record, error)
}

// Bridge maps ledger events onto mirror records.
type Bridge struct {
	mirror  MirrorWriter
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type BridgeOption func(b *Bridge)

func WithLogger(logger *slog.Logger) BridgeOption {
	return func(b *Bridge) {
		b.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) BridgeOption {
	return func(b *Bridge) {
		b.metrics = m
	}
}

// NewBridge constructs a bridge writing into the given mirror.
func NewBridge(mirror MirrorWriter, opts ...BridgeOption) *Bridge {
	b := &Bridge{mirror: mirror}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// VerificationID is the stable composite key of a policy's verification
// record. Re-deriving it from the same policy always lands on the same mirror
// record, which is what makes replays idempotent.
func VerificationID(policyID, holder string) string {
	return "VERIFICATION_" + policyID + "_" + holder
}

// Apply maps one ledger event to its mirror write. All-or-nothing per event:
// every lookup and validation happens before the single Put, so a failed
// event leaves the mirror untouched.
func (b *Bridge) Apply(ctx context.Context, event ledger.Event) error {
	err := b.apply(ctx, event)
	if err != nil {
		b.inc(func(m *metrics.Metrics) { m.SyncFailures.Inc() })
		if b.logger != nil {
			b.logger.Error("sync failed", "type", event.Type, "sequence", event.Sequence, "error", err)
		}
		return err
	}
	b.inc(func(m *metrics.Metrics) { m.SyncApplied.Inc() })
	if b.logger != nil {
		b.logger.Debug("event applied to mirror", "type", event.Type, "sequence", event.Sequence)
	}
	return nil
}

func (b *Bridge) apply(ctx context.Context, event ledger.Event) error {
	switch event.Type {
	case ledger.EventPolicyRegistered:
		return b.applyPolicyRegistered(ctx, event)
	case ledger.EventClaimSubmitted:
		return b.applyClaimSubmitted(ctx, event)
	case ledger.EventClaimProcessed:
		return b.applyClaimProcessed(ctx, event)
	case ledger.EventPolicyDeactivated:
		return b.applyPolicyDeactivated(ctx, event)
	default:
		return dErrors.Newf(dErrors.CodeSyncFailure, "unknown event type %q", event.Type)
	}
}

func (b *Bridge) applyPolicyRegistered(ctx context.Context, event ledger.Event) error {
	p := event.Policy
	if p == nil {
		return dErrors.New(dErrors.CodeSyncFailure, "policy_registered event without policy snapshot")
	}

	payload := map[string]any{
		"policy_id":      p.PolicyID,
		"holder":         p.Holder,
		"insured_amount": p.InsuredAmount,
		"premium":        p.Premium,
		"start_date":     p.StartDate.Format(time.RFC3339),
		"end_date":       p.EndDate.Format(time.RFC3339),
		"status":         policyStatus(p.IsActive),
		"document_hash":  p.DocumentHash,
	}
	return b.mirror.Put(ctx, mirror.KindPolicyVerification, VerificationID(p.PolicyID, p.Holder), payload, event.EventID)
}

func (b *Bridge) applyClaimSubmitted(ctx context.Context, event ledger.Event) error {
	c := event.Claim
	if c == nil {
		return dErrors.New(dErrors.CodeSyncFailure, "claim_submitted event without claim snapshot")
	}

	payload := map[string]any{
		"claim_id":     c.ClaimID,
		"policy_id":    c.PolicyID,
		"claimant":     c.Claimant,
		"amount":       c.Amount,
		"description":  c.Description,
		"status":       string(c.Status),
		"submitted_at": c.SubmittedAt.Format(time.RFC3339),
	}
	return b.mirror.Put(ctx, mirror.KindClaimRequest, c.ClaimID, payload, event.EventID)
}

// applyClaimProcessed is a status-only update: the existing record's payload
// survives, only status and rejection_reason move.
func (b *Bridge) applyClaimProcessed(ctx context.Context, event ledger.Event) error {
	c := event.Claim
	if c == nil {
		return dErrors.New(dErrors.CodeSyncFailure, "claim_processed event without claim snapshot")
	}

	record, err := b.mirror.Get(ctx, mirror.KindClaimRequest, c.ClaimID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return dErrors.Newf(dErrors.CodeSyncFailure, "claim %s not present in mirror", c.ClaimID)
		}
		return dErrors.Wrap(err, dErrors.CodeSyncFailure, "failed to load mirrored claim")
	}

	payload := copyInto(record.Payload)
	payload["status"] = string(c.Status)
	if c.RejectionReason != "" {
		payload["rejection_reason"] = c.RejectionReason
	}
	return b.mirror.Put(ctx, mirror.KindClaimRequest, c.ClaimID, payload, event.EventID)
}

func (b *Bridge) applyPolicyDeactivated(ctx context.Context, event ledger.Event) error {
	p := event.Policy
	if p == nil {
		return dErrors.New(dErrors.CodeSyncFailure, "policy_deactivated event without policy snapshot")
	}

	id := VerificationID(p.PolicyID, p.Holder)
	record, err := b.mirror.Get(ctx, mirror.KindPolicyVerification, id)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return dErrors.Newf(dErrors.CodeSyncFailure, "policy %s not present in mirror", p.PolicyID)
		}
		return dErrors.Wrap(err, dErrors.CodeSyncFailure, "failed to load mirrored policy")
	}

	payload := copyInto(record.Payload)
	payload["status"] = policyStatus(false)
	return b.mirror.Put(ctx, mirror.KindPolicyVerification, id, payload, event.EventID)
}

func (b *Bridge) inc(f func(m *metrics.Metrics)) {
	if b.metrics == nil {
		return
	}
	f(b.metrics)
}

func policyStatus(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

func copyInto(in map[string]any) map[string]any {
	out := make(map[string]any, len(in)+2)
	for k, v := range in {
		out[k] = v
	}
	return out
}
