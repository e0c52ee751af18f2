package override

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"certguard/internal/duplicate/models"
	dErrors "certguard/pkg/domain-errors"
	"certguard/pkg/platform/sentinel"
)

type OverrideStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func TestOverrideStoreSuite(t *testing.T) {
	suite.Run(t, new(OverrideStoreSuite))
}

func (s *OverrideStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func (s *OverrideStoreSuite) create(id string, createdAt time.Time) *models.OverrideRequest {
	req, err := models.NewOverrideRequest(id, "cert-"+id, "retake", "user-1", createdAt)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, req))
	return req
}

func (s *OverrideStoreSuite) TestCreateAndFind() {
	s.create("o1", s.now)

	s.Run("finds created request", func() {
		found, err := s.store.FindByID(s.ctx, "o1")
		s.Require().NoError(err)
		s.Equal(models.OverrideStatusPending, found.Status)
		s.Equal("cert-o1", found.CertificateID)
	})

	s.Run("rejects duplicate ID", func() {
		req, err := models.NewOverrideRequest("o1", "cert-x", "again", "user-2", s.now)
		s.Require().NoError(err)
		s.Require().ErrorIs(s.store.Create(s.ctx, req), sentinel.ErrConflict)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, "missing")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *OverrideStoreSuite) TestList() {
	s.create("b", s.now)
	s.create("a", s.now)
	s.create("c", s.now.Add(-time.Hour))
	_, err := s.store.Execute(s.ctx, "b", func(r *models.OverrideRequest) error {
		return r.Approve("admin", s.now)
	})
	s.Require().NoError(err)

	s.Run("all statuses ordered by creation then ID", func() {
		all, err := s.store.List(s.ctx, "")
		s.Require().NoError(err)
		s.Equal([]string{"c", "a", "b"}, overrideIDs(all))
	})

	s.Run("filters by status", func() {
		pending, err := s.store.List(s.ctx, models.OverrideStatusPending)
		s.Require().NoError(err)
		s.Equal([]string{"c", "a"}, overrideIDs(pending))
	})
}

func (s *OverrideStoreSuite) TestExecute() {
	s.Run("persists applied transition", func() {
		s.create("ok", s.now)
		updated, err := s.store.Execute(s.ctx, "ok", func(r *models.OverrideRequest) error {
			return r.Reject("admin", s.now)
		})
		s.Require().NoError(err)
		s.Equal(models.OverrideStatusRejected, updated.Status)

		found, err := s.store.FindByID(s.ctx, "ok")
		s.Require().NoError(err)
		s.Equal(models.OverrideStatusRejected, found.Status)
		s.Equal("admin", found.ReviewedBy)
	})

	s.Run("writes nothing when callback fails", func() {
		s.create("keep", s.now)
		boom := errors.New("boom")
		_, err := s.store.Execute(s.ctx, "keep", func(r *models.OverrideRequest) error {
			r.Status = models.OverrideStatusApproved
			return boom
		})
		s.Require().ErrorIs(err, boom)

		found, err := s.store.FindByID(s.ctx, "keep")
		s.Require().NoError(err)
		s.Equal(models.OverrideStatusPending, found.Status)
	})

	s.Run("unknown ID returns ErrNotFound", func() {
		_, err := s.store.Execute(s.ctx, "missing", func(*models.OverrideRequest) error { return nil })
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestConcurrentReview verifies exactly one reviewer wins a race on the same request.
func (s *OverrideStoreSuite) TestConcurrentReview() {
	s.create("race", s.now)

	const reviewers = 20
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)
	for i := 0; i < reviewers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.store.Execute(s.ctx, "race", func(r *models.OverrideRequest) error {
				if i%2 == 0 {
					return r.Approve("admin", s.now)
				}
				return r.Reject("admin", s.now)
			})
			switch {
			case err == nil:
				successes.Add(1)
			case dErrors.HasCode(err, dErrors.CodeConflict):
				conflicts.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(reviewers-1), conflicts.Load())
}

func overrideIDs(reqs []models.OverrideRequest) []string {
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = r.ID
	}
	return out
}
