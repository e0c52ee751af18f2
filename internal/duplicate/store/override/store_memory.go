package override

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"certguard/internal/duplicate/models"
	"certguard/pkg/platform/sentinel"
)

// InMemoryStore is the override ledger for tests and single-node deployments.
type InMemoryStore struct {
	mu       sync.Mutex
	requests map[string]models.OverrideRequest
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{requests: make(map[string]models.OverrideRequest)}
}

func (s *InMemoryStore) Create(_ context.Context, req *models.OverrideRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[req.ID]; exists {
		return sentinel.ErrConflict
	}
	s.requests[req.ID] = *req
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*models.OverrideRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &req, nil
}

// List returns requests oldest first, optionally filtered by status.
func (s *InMemoryStore) List(_ context.Context, status models.OverrideStatus) ([]models.OverrideRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.OverrideRequest, 0, len(s.requests))
	for _, req := range s.requests {
		if status == "" || req.Status == status {
			out = append(out, req)
		}
	}
	slices.SortFunc(out, func(a, b models.OverrideRequest) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// Execute loads the request, applies fn, and persists the result atomically.
// If fn returns an error nothing is written.
func (s *InMemoryStore) Execute(_ context.Context, id string, fn func(*models.OverrideRequest) error) (*models.OverrideRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := current
	if err := fn(&working); err != nil {
		return nil, err
	}
	s.requests[id] = working
	return &working, nil
}
