package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"certguard/internal/duplicate/models"
	"certguard/internal/platform/tracing"
	dErrors "certguard/pkg/domain-errors"
	audit "certguard/pkg/platform/audit"
	"certguard/pkg/requestcontext"
)

// CreateOverrideRequest records a pending request to issue despite a warn verdict.
// Repeated requests for the same certificate are allowed.
func (s *Service) CreateOverrideRequest(ctx context.Context, certificateID, reason, requestedBy string) (*models.OverrideRequest, error) {
	ctx, span := tracing.Start(ctx, s.tracer, "duplicate.override.create",
		attribute.String("certificate_id", certificateID),
	)
	req, err := s.createOverride(ctx, certificateID, reason, requestedBy)
	tracing.End(span, err)
	return req, err
}

func (s *Service) createOverride(ctx context.Context, certificateID, reason, requestedBy string) (*models.OverrideRequest, error) {
	req, err := models.NewOverrideRequest(s.newID(), certificateID, reason, requestedBy, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	if err := s.overrides.Create(ctx, req); err != nil {
		return nil, storeErr(err, "override request")
	}

	s.metrics.IncOverride(string(req.Status))
	s.logAudit(ctx, string(audit.EventOverrideRequested),
		"override_request_id", req.ID,
		"certificate_id", req.CertificateID,
		"requested_by", req.RequestedBy,
	)
	s.emit(ctx, audit.Event{
		Type:              audit.EventOverrideRequested,
		CertificateID:     req.CertificateID,
		OverrideRequestID: req.ID,
		Action:            string(req.Status),
		Reason:            req.Reason,
		ActorID:           req.RequestedBy,
	})
	return req, nil
}

// ApproveOverrideRequest moves a pending request to approved.
// A request that already left pending fails with CodeConflict.
func (s *Service) ApproveOverrideRequest(ctx context.Context, requestID, approvedBy string) (*models.OverrideRequest, error) {
	return s.review(ctx, requestID, approvedBy, models.OverrideStatusApproved)
}

// RejectOverrideRequest moves a pending request to rejected.
// A request that already left pending fails with CodeConflict.
func (s *Service) RejectOverrideRequest(ctx context.Context, requestID, rejectedBy string) (*models.OverrideRequest, error) {
	return s.review(ctx, requestID, rejectedBy, models.OverrideStatusRejected)
}

func (s *Service) review(ctx context.Context, requestID, reviewer string, to models.OverrideStatus) (*models.OverrideRequest, error) {
	ctx, span := tracing.Start(ctx, s.tracer, "duplicate.override.review",
		attribute.String("override_request_id", requestID),
		attribute.String("status", string(to)),
	)
	req, err := s.applyReview(ctx, requestID, strings.TrimSpace(reviewer), to)
	tracing.End(span, err)
	return req, err
}

func (s *Service) applyReview(ctx context.Context, requestID, reviewer string, to models.OverrideStatus) (*models.OverrideRequest, error) {
	if strings.TrimSpace(requestID) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "request id is required")
	}
	if reviewer == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "reviewer is required")
	}
	if s.config.RequireAdminApproval && !requestcontext.HasRole(ctx, requestcontext.RoleAdmin) {
		return nil, dErrors.New(dErrors.CodeForbidden, "admin role required to review override requests")
	}

	now := requestcontext.Now(ctx)
	req, err := s.overrides.Execute(ctx, requestID, func(r *models.OverrideRequest) error {
		if err := r.CanReview(); err != nil {
			return err
		}
		if to == models.OverrideStatusApproved {
			r.ApplyApproval(reviewer, now)
		} else {
			r.ApplyRejection(reviewer, now)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "override request")
	}

	eventType := audit.EventOverrideApproved
	if to == models.OverrideStatusRejected {
		eventType = audit.EventOverrideRejected
	}
	s.metrics.IncOverride(string(req.Status))
	s.logAudit(ctx, string(eventType),
		"override_request_id", req.ID,
		"certificate_id", req.CertificateID,
		"reviewed_by", reviewer,
	)
	s.emit(ctx, audit.Event{
		Type:              eventType,
		CertificateID:     req.CertificateID,
		OverrideRequestID: req.ID,
		Action:            string(req.Status),
		ActorID:           reviewer,
	})
	return req, nil
}

func (s *Service) GetOverrideRequest(ctx context.Context, requestID string) (*models.OverrideRequest, error) {
	if strings.TrimSpace(requestID) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "request id is required")
	}
	req, err := s.overrides.FindByID(ctx, requestID)
	if err != nil {
		return nil, storeErr(err, "override request")
	}
	return req, nil
}

// ListOverrideRequests returns requests oldest first. An empty status lists all.
func (s *Service) ListOverrideRequests(ctx context.Context, status models.OverrideStatus) ([]models.OverrideRequest, error) {
	if status != "" && !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown override status "+string(status))
	}
	reqs, err := s.overrides.List(ctx, status)
	if err != nil {
		return nil, storeErr(err, "override request")
	}
	return reqs, nil
}
