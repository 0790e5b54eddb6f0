package party

import (
	"context"
	"sync"

	"github.com/google/uuid"

	dErrors "insurechain/pkg/domain-errors"
)

var (
	ErrNotFound = dErrors.New(dErrors.CodeNotFound, "party not found")
)

// InMemoryStore keeps registered parties keyed by name.
type InMemoryStore struct {
	mu       sync.RWMutex
	byName   map[string]Party
	nameByID map[uuid.UUID]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byName:   make(map[string]Party),
		nameByID: make(map[uuid.UUID]string),
	}
}

// CreateIfNameAvailable stores the party unless the name is taken.
func (s *InMemoryStore) CreateIfNameAvailable(_ context.Context, p *Party) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byName[p.Name]; exists {
		return dErrors.New(dErrors.CodeConflict, "party name must be unique")
	}
	s.byName[p.Name] = *p
	s.nameByID[p.ID] = p.Name
	return nil
}

func (s *InMemoryStore) FindByName(_ context.Context, name string) (*Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byName[name]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.nameByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	p := s.byName[name]
	return &p, nil
}

// Names lists registered organization names per role; the mirror's status
// descriptor reports these.
func (s *InMemoryStore) Names(_ context.Context, role Role) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for name, p := range s.byName {
		if p.Role == role {
			out = append(out, name)
		}
	}
	return out, nil
}
