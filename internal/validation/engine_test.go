package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insurechain/internal/ledger/models"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func policy(t *testing.T, insured int64) *models.Policy {
	t.Helper()
	p, err := models.NewPolicy("pid", "holder-1", insured, 1, now, now.AddDate(1, 0, 0), "", now)
	require.NoError(t, err)
	return p
}

func claim(t *testing.T, amount int64) *models.Claim {
	t.Helper()
	c, err := models.NewClaim("cid", "pid", "holder-1", amount, "", now)
	require.NoError(t, err)
	return c
}

func TestIsPolicyValid(t *testing.T) {
	p := policy(t, 10)
	assert.True(t, IsPolicyValid(p, now))
	assert.False(t, IsPolicyValid(p, now.AddDate(2, 0, 0)), "outside coverage window")

	p.ApplyDeactivation()
	assert.False(t, IsPolicyValid(p, now), "inactive policy")
}

func TestIsAmountValid(t *testing.T) {
	p := policy(t, 10)
	assert.True(t, IsAmountValid(claim(t, 10), p))
	assert.False(t, IsAmountValid(claim(t, 11), p))
}

func TestRatioBoundaryUsesIntegerFloor(t *testing.T) {
	p := policy(t, 10)

	// floor(8*100/10) = 80, exactly at the limit.
	assert.True(t, IsAmountReasonable(claim(t, 8), p))
	// floor(9*100/10) = 90.
	assert.False(t, IsAmountReasonable(claim(t, 9), p))

	// Floor truncation keeps awkward divisions at the boundary: 80.6% floors
	// to 80 and still passes.
	odd := policy(t, 1000)
	assert.True(t, IsAmountReasonable(claim(t, 806), odd))
	assert.False(t, IsAmountReasonable(claim(t, 811), odd))
}

func TestEvaluateReportsFirstFailingCondition(t *testing.T) {
	p := policy(t, 5)

	// Policy validity is checked before the amount rules.
	inactive := policy(t, 5)
	inactive.ApplyDeactivation()
	approved, reason := Evaluate(claim(t, 100), inactive, now)
	assert.False(t, approved)
	assert.Equal(t, ReasonPolicyInvalid, reason)

	// Amount validity is checked before the ratio rule: 6 > 5 fails both,
	// but the amount rule is reported.
	approved, reason = Evaluate(claim(t, 6), p, now)
	assert.False(t, approved)
	assert.Equal(t, ReasonAmountExceeded, reason)

	approved, reason = Evaluate(claim(t, 5), p, now)
	assert.False(t, approved)
	assert.Equal(t, ReasonRatioExceeded, reason)
}

func TestEvaluateApproves(t *testing.T) {
	p := policy(t, 10)
	approved, reason := Evaluate(claim(t, 3), p, now)
	assert.True(t, approved)
	assert.Empty(t, reason)
}
