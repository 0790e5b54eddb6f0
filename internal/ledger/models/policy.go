package models

import (
	"time"

	dErrors "insurechain/pkg/domain-errors"
)

// MinimumPremium is the lowest premium accepted at registration, in whole
// currency units.
const MinimumPremium int64 = 1

// Policy is the authoritative record of an insurance policy.
//
// Invariants:
//   - Holder is non-empty
//   - InsuredAmount > 0
//   - Premium >= MinimumPremium
//   - EndDate > StartDate and EndDate > CreatedAt
//   - IsActive starts true and may only transition to false, once
//
// Amounts are whole currency units (int64) so the claim-ratio rule's integer
// floor division is exact at boundary values.
type Policy struct {
	ID            string    `json:"id"`
	Holder        string    `json:"holder"`
	InsuredAmount int64     `json:"insured_amount"`
	Premium       int64     `json:"premium"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	IsActive      bool      `json:"is_active"`
	DocumentHash  string    `json:"document_hash"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewPolicy validates registration inputs and constructs an active policy.
// The id is derived by the caller (it needs the ledger's sequence counter).
func NewPolicy(id, holder string, insuredAmount, premium int64, startDate, endDate time.Time, documentHash string, now time.Time) (*Policy, error) {
	if holder == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "policy holder cannot be empty")
	}
	if insuredAmount <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "insured amount must be positive")
	}
	if premium < MinimumPremium {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "premium must be at least %d", MinimumPremium)
	}
	if !endDate.After(startDate) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "policy end date must be after start date")
	}
	if !endDate.After(now) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "policy end date must be in the future")
	}
	return &Policy{
		ID:            id,
		Holder:        holder,
		InsuredAmount: insuredAmount,
		Premium:       premium,
		StartDate:     startDate,
		EndDate:       endDate,
		IsActive:      true,
		DocumentHash:  documentHash,
		CreatedAt:     now,
	}, nil
}

// InCoverage reports whether now falls inside the policy's coverage window.
func (p *Policy) InCoverage(now time.Time) bool {
	return !now.Before(p.StartDate) && !now.After(p.EndDate)
}

// CanDeactivate checks that the one-way deactivation transition is allowed.
func (p *Policy) CanDeactivate() error {
	if !p.IsActive {
		return dErrors.New(dErrors.CodeInvariantViolation, "policy is already inactive")
	}
	return nil
}

// ApplyDeactivation transitions the policy to inactive. There is no
// reactivation path. Call CanDeactivate first.
func (p *Policy) ApplyDeactivation() {
	p.IsActive = false
}
