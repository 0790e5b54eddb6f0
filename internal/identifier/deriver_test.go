package identifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveIsDeterministic(t *testing.T) {
	a := Derive(String("holder-1"), Int64(1000), Uint64(0))
	b := Derive(String("holder-1"), Int64(1000), Uint64(0))
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestDeriveFramingDisambiguatesBoundaries(t *testing.T) {
	// Without length framing these would concatenate identically.
	a := Derive(String("ab"), String("c"))
	b := Derive(String("a"), String("bc"))
	assert.NotEqual(t, a, b)
}

func TestDeriveIsOrderSensitive(t *testing.T) {
	a := Derive(String("x"), String("y"))
	b := Derive(String("y"), String("x"))
	assert.NotEqual(t, a, b)
}

func TestDeriveDistinguishesTypes(t *testing.T) {
	// Same byte content, different tags.
	a := Derive(Int64(42))
	b := Derive(Uint64(42))
	assert.NotEqual(t, a, b)
}

func TestPolicyIDSequenceDisambiguates(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	start := now
	end := now.AddDate(1, 0, 0)

	first := PolicyID("holder-1", 10, 1, start, end, now, 0)
	second := PolicyID("holder-1", 10, 1, start, end, now, 1)
	assert.NotEqual(t, first, second, "identical registrations in the same instant must not collide")
}

func TestClaimIDRecomputableOffline(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	id := ClaimID("policy-1", "holder-1", 3, "x-ray", now, 7)

	recomputed := Derive(
		String("policy-1"),
		String("holder-1"),
		Int64(3),
		String("x-ray"),
		Time(now),
		Uint64(7),
	)
	assert.Equal(t, recomputed, id)
}
