// Package store holds the authoritative policy and claim records. The ledger
// service is the store's only writer.
package store

import (
	"context"
	"sync"

	"insurechain/internal/ledger/models"
	dErrors "insurechain/pkg/domain-errors"
)

var (
	// ErrNotFound keeps store-level 404s consistent so the service can
	// translate them uniformly.
	ErrNotFound = dErrors.New(dErrors.CodeNotFound, "record not found")
)

// InMemoryStore keeps policies and claims in maps guarded by a single lock.
// Values are copied on the way in and out so callers can never mutate stored
// state behind the lock.
type InMemoryStore struct {
	mu       sync.RWMutex
	policies map[string]models.Policy
	claims   map[string]models.Claim
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		policies: make(map[string]models.Policy),
		claims:   make(map[string]models.Claim),
	}
}

func (s *InMemoryStore) SavePolicy(_ context.Context, policy *models.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[policy.ID] = *policy
	return nil
}

func (s *InMemoryStore) FindPolicy(_ context.Context, id string) (*models.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *InMemoryStore) ListPoliciesByHolder(_ context.Context, holder string) ([]models.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Policy
	for _, p := range s.policies {
		if p.Holder == holder {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *InMemoryStore) SaveClaim(_ context.Context, claim *models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims[claim.ID] = *claim
	return nil
}

func (s *InMemoryStore) FindClaim(_ context.Context, id string) (*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.claims[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *InMemoryStore) ListClaimsByClaimant(_ context.Context, claimant string) ([]models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Claim
	for _, c := range s.claims {
		if c.Claimant == claimant {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *InMemoryStore) CountClaimsByStatus(_ context.Context) (map[models.ClaimStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.ClaimStatus]int)
	for _, c := range s.claims {
		counts[c.Status]++
	}
	return counts, nil
}
