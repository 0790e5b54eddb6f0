// Package validation holds the pure predicates that gate claim approval.
// This is pure domain logic - no I/O, no side effects. Each predicate is
// exposed individually so callers and tests can probe partial failure
// combinations independently of the ledger's mutation path.
package validation

import (
	"time"

	"insurechain/internal/ledger/models"
)

// MaximumClaimRatio is the highest allowed claim-to-coverage percentage.
// It is a constant, not a tunable: approval decisions must be reproducible.
const MaximumClaimRatio int64 = 80

// Rejection reasons, in rule-priority order. The reported reason is always
// the first failing condition's text.
const (
	ReasonPolicyInvalid  = "policy is not valid"
	ReasonAmountExceeded = "claim amount exceeds insured amount"
	ReasonRatioExceeded  = "claim ratio exceeded"
)

// IsPolicyValid reports whether the policy is active and now falls inside
// its coverage window.
func IsPolicyValid(policy *models.Policy, now time.Time) bool {
	return policy.IsActive && policy.InCoverage(now)
}

// IsAmountValid reports whether the claim does not exceed the insured amount.
func IsAmountValid(claim *models.Claim, policy *models.Policy) bool {
	return claim.Amount <= policy.InsuredAmount
}

// IsAmountReasonable applies the ratio rule:
// floor(amount*100/insuredAmount) <= MaximumClaimRatio. Integer division is
// deliberate - a floating-point approximation drifts at exact boundaries.
func IsAmountReasonable(claim *models.Claim, policy *models.Policy) bool {
	return claim.Amount*100/policy.InsuredAmount <= MaximumClaimRatio
}

// Evaluate applies the claim approval rule chain.
// Rule priority (first failure selects the reported reason):
//  1. Policy validity - active and inside coverage window
//  2. Amount validity - claim within insured amount
//  3. Amount reasonability - ratio rule
func Evaluate(claim *models.Claim, policy *models.Policy, now time.Time) (approved bool, reason string) {
	if !IsPolicyValid(policy, now) {
		return false, ReasonPolicyInvalid
	}
	if !IsAmountValid(claim, policy) {
		return false, ReasonAmountExceeded
	}
	if !IsAmountReasonable(claim, policy) {
		return false, ReasonRatioExceeded
	}
	return true, ""
}
