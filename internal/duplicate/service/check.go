package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"certguard/internal/duplicate/lock"
	"certguard/internal/duplicate/models"
	"certguard/internal/platform/tracing"
	dErrors "certguard/pkg/domain-errors"
	audit "certguard/pkg/platform/audit"
	"certguard/pkg/platform/sentinel"
	"certguard/pkg/requestcontext"
)

// IssuanceConflict is attached to the error returned when the gate refuses issuance.
type IssuanceConflict struct {
	Decision         models.Decision `json:"decision"`
	RequiresOverride bool            `json:"requiresOverride"`
}

// CheckForDuplicates evaluates the candidate against cfg and returns the verdict.
// Invalid configuration fails with CodeValidation before any store access;
// store failures fail with CodeUnavailable and are not retried.
func (s *Service) CheckForDuplicates(ctx context.Context, candidate models.Candidate, cfg models.Config) (models.Decision, error) {
	ctx, span := tracing.Start(ctx, s.tracer, "duplicate.check",
		attribute.String("issuer_id", candidate.IssuerID),
		attribute.Bool("config_enabled", cfg.Enabled),
	)
	decision, err := s.check(ctx, candidate, cfg)
	if err == nil {
		span.SetAttributes(
			attribute.Bool("is_duplicate", decision.IsDuplicate),
			attribute.String("action", string(decision.Action)),
			attribute.Int("matches", len(decision.Matches)),
		)
	}
	tracing.End(span, err)
	return decision, err
}

func (s *Service) check(ctx context.Context, candidate models.Candidate, cfg models.Config) (models.Decision, error) {
	start := time.Now()
	decision, err := s.engine.Decide(ctx, candidate, cfg)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeValidation) {
			return models.Decision{}, err
		}
		s.metrics.IncStoreFailure()
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "duplicate check failed",
				"issuer_id", candidate.IssuerID,
				"error", err,
			)
		}
		return models.Decision{}, storeErr(err, "certificate")
	}
	s.metrics.ObserveDecision(string(decision.Action), len(decision.Matches), time.Since(start).Seconds())

	if decision.IsDuplicate && cfg.LogDuplicates {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "potential duplicate certificate detected",
				"issuer_id", candidate.IssuerID,
				"rule_id", decision.RuleID,
				"action", decision.Action,
				"confidence", decision.Confidence,
				"matches", len(decision.Matches),
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		s.emit(ctx, audit.Event{
			Type:           audit.EventDuplicateDetected,
			IssuerID:       candidate.IssuerID,
			RecipientEmail: candidate.RecipientEmail,
			Action:         string(decision.Action),
			RuleID:         decision.RuleID,
			Confidence:     decision.Confidence,
			MatchCount:     len(decision.Matches),
		})
	}
	return decision, nil
}

// Issue runs the duplicate gate and persists the candidate when allowed.
//
// The (issuer, recipient email) lock is held from the check until the
// certificate is saved, so two concurrent requests for the same recipient
// cannot both pass detection. A block verdict, or a warn verdict without an
// override reason, fails with CodeConflict carrying an IssuanceConflict.
func (s *Service) Issue(ctx context.Context, candidate models.Candidate, cfg models.Config, overrideReason string) (*models.Certificate, error) {
	ctx, span := tracing.Start(ctx, s.tracer, "duplicate.issue",
		attribute.String("issuer_id", candidate.IssuerID),
	)
	cert, err := s.issue(ctx, candidate, cfg, strings.TrimSpace(overrideReason))
	tracing.End(span, err)
	return cert, err
}

func (s *Service) issue(ctx context.Context, candidate models.Candidate, cfg models.Config, overrideReason string) (*models.Certificate, error) {
	if err := requireCandidate(candidate); err != nil {
		return nil, err
	}
	if overrideReason != "" && cfg.Enabled && !cfg.AllowOverride {
		s.metrics.IncIssuance("override_disabled")
		return nil, dErrors.New(dErrors.CodeForbidden, "overrides are disabled by the active rule set")
	}

	held, err := s.locker.Acquire(ctx, lock.Key(candidate.IssuerID, candidate.RecipientEmail), s.leaseFor(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncLockContention()
			return nil, dErrors.New(dErrors.CodeConflict, "another issuance for this recipient is in progress")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "issuance lock unavailable")
	}
	defer func() {
		if err := held.Release(context.WithoutCancel(ctx)); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "failed to release issuance lock", "error", err)
		}
	}()

	decision := models.AllowDecision()
	if cfg.Enabled {
		decision, err = s.CheckForDuplicates(ctx, candidate, cfg)
		if err != nil {
			return nil, err
		}
	}

	if decision.IsDuplicate {
		switch decision.Action {
		case models.ActionBlock:
			s.metrics.IncIssuance("blocked")
			return nil, dErrors.New(dErrors.CodeConflict, "certificate issuance blocked due to potential duplicate").
				WithDetails(IssuanceConflict{Decision: decision})
		case models.ActionWarn:
			if overrideReason == "" {
				s.metrics.IncIssuance("override_required")
				return nil, dErrors.New(dErrors.CodeConflict, "potential duplicate detected, override reason required").
					WithDetails(IssuanceConflict{Decision: decision, RequiresOverride: true})
			}
		case models.ActionAllow:
		}
	}

	cert := models.Certificate{
		ID:             s.newID(),
		IssuerID:       candidate.IssuerID,
		RecipientEmail: candidate.RecipientEmail,
		RecipientName:  candidate.RecipientName,
		Title:          candidate.Title,
		Description:    candidate.Description,
		Status:         models.CertificateStatusActive,
		IssuedAt:       requestcontext.Now(ctx),
	}
	// Only an override marks the certificate; allow verdicts persist clean
	// even when they matched.
	if overrideReason != "" {
		cert.IsDuplicate = true
		cert.OverrideReason = overrideReason
		cert.OverriddenBy = requestcontext.Principal(ctx)
		if best, ok := decision.BestMatch(); ok && decision.IsDuplicate && best.MatchType == models.MatchTypeExact {
			cert.DuplicateOfID = best.CertificateID
		}
	}

	if err := s.certs.Save(ctx, cert); err != nil {
		return nil, storeErr(err, "certificate")
	}

	outcome := "issued"
	if cert.OverrideReason != "" {
		outcome = "overridden"
	}
	s.metrics.IncIssuance(outcome)
	s.logAudit(ctx, string(audit.EventCertificateIssued),
		"certificate_id", cert.ID,
		"issuer_id", cert.IssuerID,
		"is_duplicate", cert.IsDuplicate,
	)
	s.emit(ctx, audit.Event{
		Type:          audit.EventCertificateIssued,
		IssuerID:      cert.IssuerID,
		CertificateID: cert.ID,
		Action:        outcome,
		Reason:        cert.OverrideReason,
	})
	return &cert, nil
}

func requireCandidate(c models.Candidate) error {
	if strings.TrimSpace(c.IssuerID) == "" {
		return dErrors.New(dErrors.CodeValidation, "issuerId is required")
	}
	if strings.TrimSpace(c.RecipientEmail) == "" {
		return dErrors.New(dErrors.CodeValidation, "recipientEmail is required")
	}
	if strings.TrimSpace(c.RecipientName) == "" {
		return dErrors.New(dErrors.CodeValidation, "recipientName is required")
	}
	if strings.TrimSpace(c.Title) == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	return nil
}
