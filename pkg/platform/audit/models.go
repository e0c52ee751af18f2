package audit

import (
	"context"
	"time"
)

// EventType names a duplicate detection lifecycle event.
type EventType string

const (
	EventDuplicateDetected EventType = "duplicate_detected"
	EventOverrideRequested EventType = "override_requested"
	EventOverrideApproved  EventType = "override_approved"
	EventOverrideRejected  EventType = "override_rejected"
	EventCertificateIssued EventType = "certificate_issued"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID                string    `json:"id"`
	Type              EventType `json:"type"`
	Timestamp         time.Time `json:"timestamp"`
	IssuerID          string    `json:"issuerId,omitempty"`
	RecipientEmail    string    `json:"recipientEmail,omitempty"`
	CertificateID     string    `json:"certificateId,omitempty"`
	OverrideRequestID string    `json:"overrideRequestId,omitempty"`
	// Action is the decision action for detections, the new status for overrides.
	Action     string  `json:"action,omitempty"`
	RuleID     string  `json:"ruleId,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	MatchCount int     `json:"matchCount,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	// ActorID is the principal who triggered the event.
	ActorID   string `json:"actorId,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// PartitionKey groups an issuer's events on one partition.
func (e Event) PartitionKey() string {
	if e.IssuerID != "" {
		return e.IssuerID
	}
	return e.OverrideRequestID
}

// Store persists or forwards audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
