package certificate

import (
	"context"
	"slices"
	"sync"
	"time"

	"certguard/internal/duplicate/models"
	"certguard/pkg/platform/sentinel"
)

// InMemoryStore keeps certificates in insertion order.
type InMemoryStore struct {
	mu    sync.RWMutex
	order []string
	certs map[string]models.Certificate
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{certs: make(map[string]models.Certificate)}
}

func (s *InMemoryStore) Save(_ context.Context, cert models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.certs[cert.ID]; !exists {
		s.order = append(s.order, cert.ID)
	}
	s.certs[cert.ID] = cert
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cert, ok := s.certs[id]; ok {
		return cert, nil
	}
	return models.Certificate{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) Query(_ context.Context, q models.CertificateQuery) ([]models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Certificate, 0, len(s.order))
	for _, id := range s.order {
		if cert := s.certs[id]; q.Matches(cert) {
			out = append(out, cert)
		}
	}
	return out, nil
}

// QueryDuplicatesInRange returns flagged duplicates issued within [start, end], oldest first.
func (s *InMemoryStore) QueryDuplicatesInRange(_ context.Context, start, end time.Time) ([]models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tr := models.TimeRange{Start: start, End: end}
	out := make([]models.Certificate, 0)
	for _, id := range s.order {
		cert := s.certs[id]
		if cert.IsDuplicate && tr.Contains(cert.IssuedAt) {
			out = append(out, cert)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Certificate) int {
		return a.IssuedAt.Compare(b.IssuedAt)
	})
	return out, nil
}
