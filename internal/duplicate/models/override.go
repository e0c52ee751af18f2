package models

import (
	"strings"
	"time"

	dErrors "certguard/pkg/domain-errors"
)

// OverrideStatus is the review state of an override request.
type OverrideStatus string

const (
	OverrideStatusPending  OverrideStatus = "pending"
	OverrideStatusApproved OverrideStatus = "approved"
	OverrideStatusRejected OverrideStatus = "rejected"
)

func (s OverrideStatus) IsValid() bool {
	switch s {
	case OverrideStatusPending, OverrideStatusApproved, OverrideStatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s OverrideStatus) IsTerminal() bool {
	return s == OverrideStatusApproved || s == OverrideStatusRejected
}

// OverrideRequest is a human request to issue despite a warn verdict.
//
// Invariants:
//   - CertificateID, Reason and RequestedBy are non-empty
//   - Created in Pending; moves once to Approved or Rejected
//   - Approved and Rejected are terminal; the record is immutable afterwards
//   - ReviewedAt is set exactly when the request leaves Pending
type OverrideRequest struct {
	ID            string         `json:"id"`
	CertificateID string         `json:"certificateId"`
	Reason        string         `json:"reason"`
	RequestedBy   string         `json:"requestedBy"`
	ApprovedBy    string         `json:"approvedBy,omitempty"`
	ReviewedBy    string         `json:"reviewedBy,omitempty"`
	Status        OverrideStatus `json:"status"`
	CreatedAt     time.Time      `json:"createdAt"`
	ReviewedAt    *time.Time     `json:"reviewedAt,omitempty"`
}

// NewOverrideRequest constructs a pending request.
func NewOverrideRequest(id, certificateID, reason, requestedBy string, now time.Time) (*OverrideRequest, error) {
	certificateID = strings.TrimSpace(certificateID)
	reason = strings.TrimSpace(reason)
	requestedBy = strings.TrimSpace(requestedBy)
	if certificateID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "certificate id is required")
	}
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "override reason is required")
	}
	if requestedBy == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "requester is required")
	}
	return &OverrideRequest{
		ID:            id,
		CertificateID: certificateID,
		Reason:        reason,
		RequestedBy:   requestedBy,
		Status:        OverrideStatusPending,
		CreatedAt:     now,
	}, nil
}

// CanReview checks that the request is still pending.
// Use with ApplyApproval or ApplyRejection inside store update callbacks.
func (o *OverrideRequest) CanReview() error {
	if o.Status != OverrideStatusPending {
		return dErrors.New(dErrors.CodeConflict, "override request already "+string(o.Status))
	}
	return nil
}

// ApplyApproval moves the request to Approved. Call CanReview first.
func (o *OverrideRequest) ApplyApproval(approvedBy string, now time.Time) {
	o.Status = OverrideStatusApproved
	o.ApprovedBy = approvedBy
	o.ReviewedBy = approvedBy
	o.ReviewedAt = &now
}

// ApplyRejection moves the request to Rejected. Call CanReview first.
func (o *OverrideRequest) ApplyRejection(rejectedBy string, now time.Time) {
	o.Status = OverrideStatusRejected
	o.ReviewedBy = rejectedBy
	o.ReviewedAt = &now
}

// Approve validates and applies approval in one call.
func (o *OverrideRequest) Approve(approvedBy string, now time.Time) error {
	if err := o.CanReview(); err != nil {
		return err
	}
	o.ApplyApproval(approvedBy, now)
	return nil
}

// Reject validates and applies rejection in one call.
func (o *OverrideRequest) Reject(rejectedBy string, now time.Time) error {
	if err := o.CanReview(); err != nil {
		return err
	}
	o.ApplyRejection(rejectedBy, now)
	return nil
}
