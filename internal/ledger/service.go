// Package ledger is the authoritative policy/claim state machine. The
// service is the single writer of policy and claim records: every mutating
// operation runs derive-validate-mutate-emit under one lock, so identifiers,
// sequence counters, and emitted events always agree.
package ledger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"insurechain/internal/audit"
	"insurechain/internal/identifier"
	"insurechain/internal/ledger/models"
	"insurechain/internal/party"
	"insurechain/internal/platform/metrics"
	"insurechain/internal/validation"
	dErrors "insurechain/pkg/domain-errors"
)

// Store is the persistence contract for authoritative records.
type Store interface {
	SavePolicy(ctx context.Context, policy *models.Policy) error
	FindPolicy(ctx context.Context, id string) (*models.Policy, error)
	ListPoliciesByHolder(ctx context.Context, holder string) ([]models.Policy, error)
	SaveClaim(ctx context.Context, claim *models.Claim) error
	FindClaim(ctx context.Context, id string) (*models.Claim, error)
	ListClaimsByClaimant(ctx context.Context, claimant string) ([]models.Claim, error)
	CountClaimsByStatus(ctx context.Context) (map[models.ClaimStatus]int, error)
}

// AuditPublisher records every mutating operation. Emission is best-effort:
// a failing audit sink is logged, never propagated.
type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Notifier is the post-approval hook (claim payout notification in the full
// deployment). Strictly best-effort: its failure never reverts a recorded
// approval.
type Notifier interface {
	ClaimApproved(ctx context.Context, claim ClaimEvent) error
}

// Service orchestrates policy registration, claim submission, and claim
// processing.
type Service struct {
	mu    sync.Mutex
	store Store
	sink  EventSink

	// Counters are explicit ledger state: the pre-increment value feeds
	// identifier derivation, so they must move in lockstep with the store.
	totalPolicies uint64
	totalClaims   uint64

	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	notifier       Notifier
	clock          func() time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithClock injects a time source for deterministic tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// New constructs a Service.
func New(store Store, sink EventSink, opts ...Option) *Service {
	s := &Service{store: store, sink: sink, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterPolicyInput carries the immutable fields of a new policy.
type RegisterPolicyInput struct {
	Holder        string
	InsuredAmount int64
	Premium       int64
	StartDate     time.Time
	EndDate       time.Time
	DocumentHash  string
}

// RegisterPolicy creates a policy on the authoritative ledger. Insurer-role
// actors only.
func (s *Service) RegisterPolicy(ctx context.Context, input RegisterPolicyInput, actor party.Actor) (*models.Policy, error) {
	if actor.Role != party.RoleInsurer {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "only an insurer may register policies")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock().UTC()
	id := identifier.PolicyID(input.Holder, input.InsuredAmount, input.Premium,
		input.StartDate, input.EndDate, now, s.totalPolicies)

	policy, err := models.NewPolicy(id, input.Holder, input.InsuredAmount, input.Premium,
		input.StartDate, input.EndDate, input.DocumentHash, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeInvalidInput, dErrors.MessageOf(err))
		}
		return nil, err
	}

	if err := s.store.SavePolicy(ctx, policy); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save policy")
	}
	s.totalPolicies++

	event := newEvent(EventPolicyRegistered, now)
	event.Policy = policySnapshot(policy)
	s.emit(ctx, event)

	s.logAudit(ctx, actor, audit.ActionPolicyRegistered, policy.ID, "", "")
	s.inc(func(m *metrics.Metrics) { m.PoliciesRegistered.Inc() })
	if s.logger != nil {
		s.logger.Info("policy registered", "policy_id", policy.ID, "holder", policy.Holder)
	}
	return policy, nil
}

// SubmitClaimInput carries the fields of a new claim.
type SubmitClaimInput struct {
	PolicyID    string
	Amount      int64
	Description string
}

// SubmitClaim creates a pending claim against an active policy. Only the
// policy holder may submit, and only inside the coverage window. On failure
// no claim is stored and the claim counter is unchanged.
func (s *Service) SubmitClaim(ctx context.Context, input SubmitClaimInput, actor party.Actor) (*models.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	policy, err := s.store.FindPolicy(ctx, input.PolicyID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "policy not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load policy")
	}
	if !policy.IsActive {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "policy is not active")
	}
	if actor.Name != policy.Holder {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "only the policy holder may submit a claim")
	}

	now := s.clock().UTC()
	if now.Before(policy.StartDate) {
		return nil, dErrors.New(dErrors.CodeNotYetEffective, "policy is not yet effective")
	}
	if now.After(policy.EndDate) {
		return nil, dErrors.New(dErrors.CodeExpired, "policy has expired")
	}

	id := identifier.ClaimID(input.PolicyID, actor.Name, input.Amount, input.Description, now, s.totalClaims)
	claim, err := models.NewClaim(id, input.PolicyID, actor.Name, input.Amount, input.Description, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeInvalidInput, dErrors.MessageOf(err))
		}
		return nil, err
	}

	if err := s.store.SaveClaim(ctx, claim); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save claim")
	}
	s.totalClaims++

	event := newEvent(EventClaimSubmitted, now)
	event.Claim = claimSnapshot(claim)
	s.emit(ctx, event)

	s.logAudit(ctx, actor, audit.ActionClaimSubmitted, claim.ID, "", "")
	s.inc(func(m *metrics.Metrics) { m.ClaimsSubmitted.Inc() })
	if s.logger != nil {
		s.logger.Info("claim submitted", "claim_id", claim.ID, "policy_id", claim.PolicyID, "amount", claim.Amount)
	}
	return claim, nil
}

// ProcessClaim moves a pending claim to its terminal status. The decision
// rule runs in fixed order (policy validity, amount validity, ratio) and the
// reported rejection reason is the first failing condition. Processing a
// claim twice fails AlreadyProcessed without re-evaluating.
func (s *Service) ProcessClaim(ctx context.Context, claimID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	claim, err := s.store.FindClaim(ctx, claimID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return false, dErrors.New(dErrors.CodeNotFound, "claim not found")
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load claim")
	}
	if err := claim.CanProcess(); err != nil {
		return false, dErrors.Newf(dErrors.CodeAlreadyProcessed, "claim %s is already processed", claimID)
	}

	policy, err := s.store.FindPolicy(ctx, claim.PolicyID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load policy for claim")
	}

	now := s.clock().UTC()
	approved, reason := validation.Evaluate(claim, policy, now)
	if approved {
		claim.ApplyApproval()
	} else {
		claim.ApplyRejection(reason)
	}

	if err := s.store.SaveClaim(ctx, claim); err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save processed claim")
	}

	event := newEvent(EventClaimProcessed, now)
	event.Claim = claimSnapshot(claim)
	s.emit(ctx, event)

	decision := string(claim.Status)
	s.logAudit(ctx, party.Actor{Name: policy.Holder}, audit.ActionClaimProcessed, claim.ID, decision, reason)
	if approved {
		s.inc(func(m *metrics.Metrics) { m.ClaimsApproved.Inc() })
		s.notifyApproval(ctx, event)
	} else {
		s.inc(func(m *metrics.Metrics) { m.ClaimsRejected.Inc() })
	}
	if s.logger != nil {
		s.logger.Info("claim processed", "claim_id", claim.ID, "status", claim.Status, "reason", reason)
	}
	return approved, nil
}

// DeactivatePolicy irreversibly deactivates a policy. Insurer-role only.
func (s *Service) DeactivatePolicy(ctx context.Context, policyID string, actor party.Actor) error {
	if actor.Role != party.RoleInsurer {
		return dErrors.New(dErrors.CodeUnauthorized, "only an insurer may deactivate policies")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	policy, err := s.store.FindPolicy(ctx, policyID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "policy not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load policy")
	}
	if err := policy.CanDeactivate(); err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, dErrors.MessageOf(err))
	}
	policy.ApplyDeactivation()

	if err := s.store.SavePolicy(ctx, policy); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save policy")
	}

	now := s.clock().UTC()
	event := newEvent(EventPolicyDeactivated, now)
	event.Policy = policySnapshot(policy)
	s.emit(ctx, event)

	s.logAudit(ctx, actor, audit.ActionPolicyDeactivated, policy.ID, "", "")
	s.inc(func(m *metrics.Metrics) { m.PoliciesDeactivated.Inc() })
	if s.logger != nil {
		s.logger.Info("policy deactivated", "policy_id", policy.ID)
	}
	return nil
}

// GetPolicy returns a policy by id.
func (s *Service) GetPolicy(ctx context.Context, id string) (*models.Policy, error) {
	policy, err := s.store.FindPolicy(ctx, id)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "policy not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load policy")
	}
	return policy, nil
}

// GetClaim returns a claim by id.
func (s *Service) GetClaim(ctx context.Context, id string) (*models.Claim, error) {
	claim, err := s.store.FindClaim(ctx, id)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "claim not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load claim")
	}
	return claim, nil
}

// GetUserPolicies lists the policies held by a principal.
func (s *Service) GetUserPolicies(ctx context.Context, holder string) ([]models.Policy, error) {
	return s.store.ListPoliciesByHolder(ctx, holder)
}

// GetUserClaims lists the claims submitted by a principal.
func (s *Service) GetUserClaims(ctx context.Context, claimant string) ([]models.Claim, error) {
	return s.store.ListClaimsByClaimant(ctx, claimant)
}

// Stats describes ledger progress; the confirmation watcher polls this.
type Stats struct {
	TotalPolicies  uint64 `json:"total_policies"`
	TotalClaims    uint64 `json:"total_claims"`
	PendingClaims  int    `json:"pending_claims"`
	ApprovedClaims int    `json:"approved_claims"`
	RejectedClaims int    `json:"rejected_claims"`
	LastSequence   uint64 `json:"last_sequence"`
}

// GetStats reports record totals and the journal's last sequence.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	s.mu.Lock()
	totalPolicies, totalClaims := s.totalPolicies, s.totalClaims
	s.mu.Unlock()

	counts, err := s.store.CountClaimsByStatus(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count claims")
	}

	stats := &Stats{
		TotalPolicies:  totalPolicies,
		TotalClaims:    totalClaims,
		PendingClaims:  counts[models.ClaimStatusPending],
		ApprovedClaims: counts[models.ClaimStatusApproved],
		RejectedClaims: counts[models.ClaimStatusRejected],
	}
	if journaler, ok := s.sink.(*Emitter); ok && journaler != nil {
		seq, err := journaler.journal.LastSequence(ctx)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read journal sequence")
		}
		stats.LastSequence = seq
	}
	return stats, nil
}

// emit publishes a lifecycle event. The authoritative mutation has already
// committed; a failing sink is logged and surfaced via metrics, never
// reverted (the journal is recoverable from ledger state).
func (s *Service) emit(ctx context.Context, event Event) {
	if s.sink == nil {
		return
	}
	if _, err := s.sink.Publish(ctx, event); err != nil && s.logger != nil {
		s.logger.Error("failed to publish ledger event", "type", event.Type, "event_id", event.EventID, "error", err)
	}
}

func (s *Service) notifyApproval(ctx context.Context, event Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.ClaimApproved(ctx, *event.Claim); err != nil && s.logger != nil {
		s.logger.Warn("claim approval notification failed", "claim_id", event.Claim.ClaimID, "error", err)
	}
}

func (s *Service) logAudit(ctx context.Context, actor party.Actor, action audit.AuditAction, subject, decision, reason string) {
	if s.auditPublisher == nil {
		return
	}
	event := audit.Event{
		Actor:    actor.Name,
		Action:   string(action),
		Subject:  subject,
		Decision: decision,
		Reason:   reason,
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.Error("failed to emit audit event", "action", action, "error", err)
	}
}

func (s *Service) inc(f func(m *metrics.Metrics)) {
	if s.metrics == nil {
		return
	}
	f(s.metrics)
}
