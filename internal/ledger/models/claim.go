package models

import (
	"time"

	dErrors "insurechain/pkg/domain-errors"
)

// ClaimStatus is the claim state machine: pending transitions exactly once to
// approved or rejected, both terminal.
type ClaimStatus string

const (
	ClaimStatusPending  ClaimStatus = "pending"
	ClaimStatusApproved ClaimStatus = "approved"
	ClaimStatusRejected ClaimStatus = "rejected"
)

// Claim is the authoritative record of a claim against a policy.
//
// Invariants:
//   - PolicyID references a policy that existed at submission time
//   - Claimant equals the policy holder
//   - Amount > 0
//   - RejectionReason is set iff Status is rejected
type Claim struct {
	ID              string      `json:"id"`
	PolicyID        string      `json:"policy_id"`
	Claimant        string      `json:"claimant"`
	Amount          int64       `json:"amount"`
	Description     string      `json:"description"`
	SubmittedAt     time.Time   `json:"submitted_at"`
	Status          ClaimStatus `json:"status"`
	RejectionReason string      `json:"rejection_reason,omitempty"`
}

// NewClaim validates submission inputs and constructs a pending claim.
// Policy-level preconditions (existence, coverage window, claimant identity)
// are the ledger service's responsibility.
func NewClaim(id, policyID, claimant string, amount int64, description string, now time.Time) (*Claim, error) {
	if amount <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "claim amount must be positive")
	}
	return &Claim{
		ID:          id,
		PolicyID:    policyID,
		Claimant:    claimant,
		Amount:      amount,
		Description: description,
		SubmittedAt: now,
		Status:      ClaimStatusPending,
	}, nil
}

// IsPending reports whether the claim has not yet reached a terminal status.
func (c *Claim) IsPending() bool {
	return c.Status == ClaimStatusPending
}

// CanProcess checks that the claim may transition out of pending.
func (c *Claim) CanProcess() error {
	if !c.IsPending() {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "claim is already %s", c.Status)
	}
	return nil
}

// ApplyApproval moves the claim to its approved terminal state. Call
// CanProcess first.
func (c *Claim) ApplyApproval() {
	c.Status = ClaimStatusApproved
	c.RejectionReason = ""
}

// ApplyRejection moves the claim to its rejected terminal state with the
// first failing condition's reason. Call CanProcess first.
func (c *Claim) ApplyRejection(reason string) {
	c.Status = ClaimStatusRejected
	c.RejectionReason = reason
}
