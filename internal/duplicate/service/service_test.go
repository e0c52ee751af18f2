package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks CertificateStore,OverrideStore,AuditPublisher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"certguard/internal/duplicate/engine"
	"certguard/internal/duplicate/lock"
	"certguard/internal/duplicate/models"
	certstore "certguard/internal/duplicate/store/certificate"
	overridestore "certguard/internal/duplicate/store/override"
	dErrors "certguard/pkg/domain-errors"
	audit "certguard/pkg/platform/audit"
	"certguard/pkg/platform/audit/publisher"
	auditmemory "certguard/pkg/platform/audit/store/memory"
	"certguard/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	certs     *certstore.InMemoryStore
	overrides *overridestore.InMemoryStore
	events    *auditmemory.InMemoryStore
	locker    *lock.MemoryLocker
	service   *Service
	now       time.Time
	ctx       context.Context
	seq       int
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.certs = certstore.NewInMemoryStore()
	s.overrides = overridestore.NewInMemoryStore()
	s.events = auditmemory.NewInMemoryStore()
	s.locker = lock.NewMemoryLocker()
	s.seq = 0
	s.service = s.newService(models.DefaultConfig())
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *ServiceSuite) newService(cfg models.Config) *Service {
	return New(s.certs, s.overrides,
		WithEngine(engine.New(s.certs, engine.WithClock(func() time.Time { return s.now }))),
		WithAuditPublisher(publisher.NewPublisher(s.events)),
		WithLocker(s.locker, time.Minute),
		WithConfig(cfg),
		WithIDGenerator(func() string {
			s.seq++
			return fmt.Sprintf("id-%d", s.seq)
		}),
	)
}

func (s *ServiceSuite) seed(id string, issuedAt time.Time) models.Certificate {
	cert := models.Certificate{
		ID:             id,
		IssuerID:       "issuer-1",
		RecipientEmail: "john@x.com",
		RecipientName:  "John Smith",
		Title:          "Go Fundamentals",
		Status:         models.CertificateStatusActive,
		IssuedAt:       issuedAt,
	}
	s.Require().NoError(s.certs.Save(s.ctx, cert))
	return cert
}

func candidateFor(c models.Certificate) models.Candidate {
	return models.Candidate{
		IssuerID:       c.IssuerID,
		RecipientEmail: c.RecipientEmail,
		RecipientName:  c.RecipientName,
		Title:          c.Title,
	}
}

// warnConfig flags same-domain email typos and nothing else.
func warnConfig() models.Config {
	return models.Config{
		Enabled:       true,
		DefaultAction: models.ActionAllow,
		AllowOverride: true,
		LogDuplicates: true,
		Rules: []models.Rule{{
			ID:            "email_typo",
			Enabled:       true,
			Action:        models.ActionWarn,
			Threshold:     0.75,
			CheckFields:   []models.Field{models.FieldRecipientEmail},
			FuzzyMatching: true,
			Priority:      10,
		}},
	}
}

func (s *ServiceSuite) eventsOf(t audit.EventType) []audit.Event {
	events, err := s.events.ListByType(s.ctx, t)
	s.Require().NoError(err)
	return events
}

func (s *ServiceSuite) TestCheckForDuplicates() {
	existing := s.seed("cert-1", s.now.AddDate(0, 0, -1))

	s.Run("identical candidate is blocked by the highest priority rule", func() {
		decision, err := s.service.CheckForDuplicates(s.ctx, candidateFor(existing), models.DefaultConfig())
		s.Require().NoError(err)
		s.True(decision.IsDuplicate)
		s.Equal(1.0, decision.Confidence)
		s.Equal(models.ActionBlock, decision.Action)
		s.Equal("exact_match", decision.RuleID)
		s.Contains(decision.Message, "blocked")

		detected := s.eventsOf(audit.EventDuplicateDetected)
		s.Require().Len(detected, 1)
		s.Equal("block", detected[0].Action)
		s.Equal("exact_match", detected[0].RuleID)
	})

	s.Run("logDuplicates off publishes nothing", func() {
		s.events.Clear()
		cfg := models.DefaultConfig()
		cfg.LogDuplicates = false
		decision, err := s.service.CheckForDuplicates(s.ctx, candidateFor(existing), cfg)
		s.Require().NoError(err)
		s.True(decision.IsDuplicate)
		s.Empty(s.eventsOf(audit.EventDuplicateDetected))
	})

	s.Run("unrelated candidate is allowed", func() {
		decision, err := s.service.CheckForDuplicates(s.ctx, models.Candidate{
			IssuerID:       "issuer-9",
			RecipientEmail: "zoe@elsewhere.org",
			RecipientName:  "Zoe Quinn",
			Title:          "Kubernetes Ops",
		}, models.DefaultConfig())
		s.Require().NoError(err)
		s.False(decision.IsDuplicate)
		s.Equal(models.ActionAllow, decision.Action)
		s.Empty(decision.Message)
	})

	s.Run("invalid config is rejected", func() {
		cfg := models.DefaultConfig()
		cfg.Rules[0].Threshold = 2
		_, err := s.service.CheckForDuplicates(s.ctx, candidateFor(existing), cfg)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestIssue() {
	s.Run("clean candidate is persisted", func() {
		cert, err := s.service.Issue(s.ctx, models.Candidate{
			IssuerID:       "issuer-1",
			RecipientEmail: "ann@x.com",
			RecipientName:  "Ann Lee",
			Title:          "Go Fundamentals",
		}, models.DefaultConfig(), "")
		s.Require().NoError(err)
		s.False(cert.IsDuplicate)
		s.Equal(models.CertificateStatusActive, cert.Status)
		s.Equal(s.now, cert.IssuedAt)

		stored, err := s.certs.FindByID(s.ctx, cert.ID)
		s.Require().NoError(err)
		s.Equal(*cert, stored)
		s.Len(s.eventsOf(audit.EventCertificateIssued), 1)
	})

	s.Run("block verdict refuses issuance", func() {
		existing := s.seed("cert-block", s.now.AddDate(0, 0, -1))
		_, err := s.service.Issue(s.ctx, candidateFor(existing), models.DefaultConfig(), "")
		s.Require().True(dErrors.HasCode(err, dErrors.CodeConflict))

		de, ok := dErrors.As(err)
		s.Require().True(ok)
		details, ok := de.Details.(IssuanceConflict)
		s.Require().True(ok)
		s.Equal(models.ActionBlock, details.Decision.Action)
		s.False(details.RequiresOverride)
	})

	s.Run("block verdict ignores override reason", func() {
		existing, err := s.certs.FindByID(s.ctx, "cert-block")
		s.Require().NoError(err)
		_, err = s.service.Issue(s.ctx, candidateFor(existing), models.DefaultConfig(), "retake")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *ServiceSuite) TestIssueAllowVerdictPersistsUnflagged() {
	existing := s.seed("old", s.now.AddDate(0, 0, -1))
	cfg := models.Config{
		Enabled:       true,
		DefaultAction: models.ActionAllow,
		AllowOverride: true,
		Rules: []models.Rule{{
			ID:          "exact_allow",
			Enabled:     true,
			Action:      models.ActionAllow,
			Threshold:   1.0,
			CheckFields: []models.Field{models.FieldIssuerID, models.FieldRecipientEmail, models.FieldRecipientName, models.FieldTitle},
			Priority:    1,
		}},
	}

	decision, err := s.service.CheckForDuplicates(s.ctx, candidateFor(existing), cfg)
	s.Require().NoError(err)
	s.Require().True(decision.IsDuplicate)
	s.Require().Equal(models.ActionAllow, decision.Action)

	cert, err := s.service.Issue(s.ctx, candidateFor(existing), cfg, "")
	s.Require().NoError(err)
	s.False(cert.IsDuplicate)
	s.Empty(cert.DuplicateOfID)
	s.Empty(cert.OverrideReason)

	report, err := s.service.GenerateDuplicateReport(s.ctx, s.now.AddDate(0, 0, -7), s.now)
	s.Require().NoError(err)
	s.Zero(report.TotalDuplicates)
}

func (s *ServiceSuite) TestIssueWarnFlow() {
	s.seed("cert-1", s.now.AddDate(0, 0, -1))
	typo := models.Candidate{
		IssuerID:       "issuer-1",
		RecipientEmail: "jon@x.com",
		RecipientName:  "Jane Doe",
		Title:          "Rust Basics",
	}

	s.Run("warn without reason requires override", func() {
		_, err := s.service.Issue(s.ctx, typo, warnConfig(), "")
		s.Require().True(dErrors.HasCode(err, dErrors.CodeConflict))
		de, _ := dErrors.As(err)
		details := de.Details.(IssuanceConflict)
		s.True(details.RequiresOverride)
		s.Equal(models.ActionWarn, details.Decision.Action)
	})

	s.Run("warn with reason persists a flagged certificate", func() {
		ctx := requestcontext.WithPrincipal(s.ctx, "issuer-admin")
		cert, err := s.service.Issue(ctx, typo, warnConfig(), "  name changed  ")
		s.Require().NoError(err)
		s.True(cert.IsDuplicate)
		s.Equal("name changed", cert.OverrideReason)
		s.Equal("issuer-admin", cert.OverriddenBy)
		s.Equal("cert-1", cert.DuplicateOfID, "no single field is decisive so the match is exact")
	})

	s.Run("fuzzy match type leaves duplicateOfId empty", func() {
		sameName := typo
		sameName.RecipientName = "John Smith"
		cert, err := s.service.Issue(s.ctx, sameName, warnConfig(), "second attempt")
		s.Require().NoError(err)
		s.True(cert.IsDuplicate)
		s.Empty(cert.DuplicateOfID)
	})

	s.Run("override reason rejected when overrides are disabled", func() {
		cfg := warnConfig()
		cfg.AllowOverride = false
		_, err := s.service.Issue(s.ctx, typo, cfg, "please")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

type leaseRecorder struct {
	lock.Locker
	mu     sync.Mutex
	leases []time.Duration
}

func (r *leaseRecorder) Acquire(ctx context.Context, key string, ttl time.Duration) (lock.Lock, error) {
	r.mu.Lock()
	r.leases = append(r.leases, ttl)
	r.mu.Unlock()
	return r.Locker.Acquire(ctx, key, ttl)
}

func (s *ServiceSuite) TestIssueLeaseCoversRequestDeadline() {
	recorder := &leaseRecorder{Locker: lock.NewMemoryLocker()}
	svc := New(s.certs, s.overrides,
		WithEngine(engine.New(s.certs, engine.WithClock(func() time.Time { return s.now }))),
		WithLocker(recorder, 5*time.Second),
	)
	candidate := func(email string) models.Candidate {
		return models.Candidate{IssuerID: "issuer-1", RecipientEmail: email, RecipientName: "Lease Holder", Title: "Timeouts"}
	}

	disabled := models.Config{}

	_, err := svc.Issue(s.ctx, candidate("plain@x.com"), disabled, "")
	s.Require().NoError(err)

	ctx, cancel := context.WithTimeout(s.ctx, time.Minute)
	defer cancel()
	_, err = svc.Issue(ctx, candidate("slow@x.com"), disabled, "")
	s.Require().NoError(err)

	short, cancelShort := context.WithTimeout(s.ctx, time.Second)
	defer cancelShort()
	_, err = svc.Issue(short, candidate("quick@x.com"), disabled, "")
	s.Require().NoError(err)

	s.Require().Len(recorder.leases, 3)
	s.Equal(5*time.Second, recorder.leases[0], "no deadline keeps the configured lease")
	s.Greater(recorder.leases[1], 55*time.Second, "lease stretches to the request deadline")
	s.Equal(5*time.Second, recorder.leases[2], "a nearer deadline never shortens the lease")
}

func (s *ServiceSuite) TestIssueHoldsRecipientLock() {
	candidate := models.Candidate{
		IssuerID:       "issuer-1",
		RecipientEmail: "race@x.com",
		RecipientName:  "Race Condition",
		Title:          "Concurrency",
	}

	s.Run("held lock rejects issuance", func() {
		held, err := s.locker.Acquire(s.ctx, lock.Key(candidate.IssuerID, candidate.RecipientEmail), time.Minute)
		s.Require().NoError(err)
		defer func() { _ = held.Release(s.ctx) }()

		_, err = s.service.Issue(s.ctx, candidate, models.DefaultConfig(), "")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("concurrent issuance for one recipient persists once", func() {
		const workers = 10
		var (
			wg      sync.WaitGroup
			success atomic.Int32
		)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.service.Issue(s.ctx, candidate, models.DefaultConfig(), ""); err == nil {
					success.Add(1)
				}
			}()
		}
		wg.Wait()
		s.Equal(int32(1), success.Load())

		certs, err := s.certs.Query(s.ctx, models.CertificateQuery{})
		s.Require().NoError(err)
		count := 0
		for _, c := range certs {
			if c.RecipientEmail == candidate.RecipientEmail {
				count++
			}
		}
		s.Equal(1, count)
	})
}

func (s *ServiceSuite) TestGenerateDuplicateReport() {
	save := func(id, issuer, duplicateOf string, issuedAt time.Time, flagged bool) {
		s.Require().NoError(s.certs.Save(s.ctx, models.Certificate{
			ID:            id,
			IssuerID:      issuer,
			Status:        models.CertificateStatusActive,
			IssuedAt:      issuedAt,
			IsDuplicate:   flagged,
			DuplicateOfID: duplicateOf,
		}))
	}
	start := s.now.AddDate(0, 0, -7)
	save("d1", "issuer-a", "orig-1", s.now.AddDate(0, 0, -1), true)
	save("d2", "issuer-a", "", s.now.AddDate(0, 0, -2), true)
	save("d3", "issuer-b", "", start, true)
	save("old", "issuer-a", "", start.Add(-time.Hour), true)
	save("clean", "issuer-a", "", s.now.AddDate(0, 0, -1), false)

	report, err := s.service.GenerateDuplicateReport(s.ctx, start, s.now)
	s.Require().NoError(err)
	s.Equal(3, report.TotalDuplicates)
	s.Equal(map[string]int{"issuer-a": 2, "issuer-b": 1}, report.DuplicatesByIssuer)
	// A duplicateOfId reference counts as exact; everything else is fuzzy.
	s.Equal(map[models.MatchType]int{models.MatchTypeExact: 1, models.MatchTypeFuzzy: 2}, report.DuplicatesByType)
	s.Equal(s.now, report.GeneratedAt)
	s.NotEmpty(report.ID)
	s.Require().Len(report.Duplicates, 3)
	for _, m := range report.Duplicates {
		s.Equal(1.0, m.SimilarityScore)
	}

	s.Run("single duplicate round trip", func() {
		r, err := s.service.GenerateDuplicateReport(s.ctx, start, start)
		s.Require().NoError(err)
		s.Equal(1, r.TotalDuplicates)
		s.Equal(1, r.DuplicatesByIssuer["issuer-b"])
	})

	s.Run("inverted range is rejected", func() {
		_, err := s.service.GenerateDuplicateReport(s.ctx, s.now, start)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestOverrideLifecycle() {
	s.Run("create starts pending", func() {
		req, err := s.service.CreateOverrideRequest(s.ctx, "cert-1", "legal name change", "user-1")
		s.Require().NoError(err)
		s.Equal(models.OverrideStatusPending, req.Status)
		s.Equal(s.now, req.CreatedAt)
		s.Nil(req.ReviewedAt)
		s.Len(s.eventsOf(audit.EventOverrideRequested), 1)
	})

	s.Run("approve then second approve conflicts", func() {
		req, err := s.service.CreateOverrideRequest(s.ctx, "cert-2", "retake", "user-1")
		s.Require().NoError(err)

		approved, err := s.service.ApproveOverrideRequest(s.ctx, req.ID, "admin-1")
		s.Require().NoError(err)
		s.Equal(models.OverrideStatusApproved, approved.Status)
		s.Equal("admin-1", approved.ApprovedBy)
		s.Require().NotNil(approved.ReviewedAt)
		s.Equal(s.now, *approved.ReviewedAt)

		_, err = s.service.ApproveOverrideRequest(s.ctx, req.ID, "admin-2")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		_, err = s.service.RejectOverrideRequest(s.ctx, req.ID, "admin-2")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		stored, err := s.service.GetOverrideRequest(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Equal("admin-1", stored.ApprovedBy, "terminal request is immutable")
	})

	s.Run("reject sets reviewer without approver", func() {
		req, err := s.service.CreateOverrideRequest(s.ctx, "cert-3", "retake", "user-1")
		s.Require().NoError(err)

		rejected, err := s.service.RejectOverrideRequest(s.ctx, req.ID, "admin-1")
		s.Require().NoError(err)
		s.Equal(models.OverrideStatusRejected, rejected.Status)
		s.Empty(rejected.ApprovedBy)
		s.Equal("admin-1", rejected.ReviewedBy)
		s.Len(s.eventsOf(audit.EventOverrideRejected), 1)
	})

	s.Run("unknown request is not found", func() {
		_, err := s.service.ApproveOverrideRequest(s.ctx, "missing", "admin-1")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("blank inputs are validation errors", func() {
		for _, in := range []struct{ certificateID, reason, requestedBy string }{
			{"cert-4", "  ", "user-1"},
			{" ", "retake", "user-1"},
			{"cert-4", "retake", ""},
		} {
			_, err := s.service.CreateOverrideRequest(s.ctx, in.certificateID, in.reason, in.requestedBy)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), "%+v", in)
		}
	})

	s.Run("list filters by status", func() {
		pending, err := s.service.ListOverrideRequests(s.ctx, models.OverrideStatusPending)
		s.Require().NoError(err)
		s.Len(pending, 1)

		all, err := s.service.ListOverrideRequests(s.ctx, "")
		s.Require().NoError(err)
		s.Len(all, 3)

		_, err = s.service.ListOverrideRequests(s.ctx, "archived")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestAdminApprovalRequired() {
	cfg := models.DefaultConfig()
	cfg.RequireAdminApproval = true
	svc := s.newService(cfg)

	req, err := svc.CreateOverrideRequest(s.ctx, "cert-1", "retake", "user-1")
	s.Require().NoError(err)

	_, err = svc.ApproveOverrideRequest(requestcontext.WithPrincipal(s.ctx, "user-2", "issuer"), req.ID, "user-2")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	approved, err := svc.ApproveOverrideRequest(requestcontext.WithPrincipal(s.ctx, "admin-1", requestcontext.RoleAdmin), req.ID, "admin-1")
	s.Require().NoError(err)
	s.Equal(models.OverrideStatusApproved, approved.Status)
}
