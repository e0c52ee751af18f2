package models

import "time"

// CertificateStatus is the lifecycle state of a stored certificate.
type CertificateStatus string

const (
	CertificateStatusActive  CertificateStatus = "active"
	CertificateStatusRevoked CertificateStatus = "revoked"
	CertificateStatusExpired CertificateStatus = "expired"
)

// Candidate is a certificate proposed for issuance and not yet persisted.
// Empty fields are treated as absent and skipped during comparison.
type Candidate struct {
	IssuerID       string `json:"issuerId"`
	RecipientEmail string `json:"recipientEmail"`
	RecipientName  string `json:"recipientName"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
}

// Value returns the candidate's value for a comparable field.
func (c Candidate) Value(f Field) string {
	switch f {
	case FieldRecipientEmail:
		return c.RecipientEmail
	case FieldRecipientName:
		return c.RecipientName
	case FieldTitle:
		return c.Title
	case FieldIssuerID:
		return c.IssuerID
	}
	return ""
}

// Certificate is the read projection of a stored certificate used for comparison
// and reporting. Duplicate bookkeeping fields are set by the issuance gate.
type Certificate struct {
	ID             string            `json:"id"`
	IssuerID       string            `json:"issuerId"`
	RecipientEmail string            `json:"recipientEmail"`
	RecipientName  string            `json:"recipientName"`
	Title          string            `json:"title"`
	Description    string            `json:"description,omitempty"`
	Status         CertificateStatus `json:"status"`
	IssuedAt       time.Time         `json:"issuedAt"`
	IsDuplicate    bool              `json:"isDuplicate"`
	DuplicateOfID  string            `json:"duplicateOfId,omitempty"`
	OverrideReason string            `json:"overrideReason,omitempty"`
	OverriddenBy   string            `json:"overriddenBy,omitempty"`
}

// Value returns the stored value for a comparable field.
func (c Certificate) Value(f Field) string {
	switch f {
	case FieldRecipientEmail:
		return c.RecipientEmail
	case FieldRecipientName:
		return c.RecipientName
	case FieldTitle:
		return c.Title
	case FieldIssuerID:
		return c.IssuerID
	}
	return ""
}

// IsRevoked reports whether the certificate is excluded from comparisons.
func (c Certificate) IsRevoked() bool {
	return c.Status == CertificateStatusRevoked
}

// CertificateQuery filters the corpus for a rule scan.
type CertificateQuery struct {
	NotRevoked  bool
	IssuedAfter *time.Time
}

// Matches reports whether c satisfies the query.
func (q CertificateQuery) Matches(c Certificate) bool {
	if q.NotRevoked && c.IsRevoked() {
		return false
	}
	if q.IssuedAfter != nil && c.IssuedAt.Before(*q.IssuedAfter) {
		return false
	}
	return true
}
