package handler

import (
	"strings"
	"time"

	"certguard/internal/duplicate/models"
	dErrors "certguard/pkg/domain-errors"
)

const (
	maxFieldLen  = 512
	maxReasonLen = 2000
)

// CandidateRequest is the certificate proposed for issuance.
type CandidateRequest struct {
	IssuerID       string `json:"issuerId"`
	RecipientEmail string `json:"recipientEmail"`
	RecipientName  string `json:"recipientName"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
}

func (c *CandidateRequest) normalize() {
	c.IssuerID = strings.TrimSpace(c.IssuerID)
	c.RecipientEmail = strings.TrimSpace(c.RecipientEmail)
	c.RecipientName = strings.TrimSpace(c.RecipientName)
	c.Title = strings.TrimSpace(c.Title)
}

func (c *CandidateRequest) validate() error {
	fields := []struct{ name, value string }{
		{"issuerId", c.IssuerID},
		{"recipientEmail", c.RecipientEmail},
		{"recipientName", c.RecipientName},
		{"title", c.Title},
	}
	for _, f := range fields {
		if len(f.value) > maxFieldLen {
			return dErrors.New(dErrors.CodeValidation, "certificate."+f.name+" is too long")
		}
	}
	if c.IssuerID == "" {
		return dErrors.New(dErrors.CodeValidation, "certificate.issuerId is required")
	}
	if c.RecipientEmail == "" {
		return dErrors.New(dErrors.CodeValidation, "certificate.recipientEmail is required")
	}
	return nil
}

func (c *CandidateRequest) toModel() models.Candidate {
	return models.Candidate{
		IssuerID:       c.IssuerID,
		RecipientEmail: c.RecipientEmail,
		RecipientName:  c.RecipientName,
		Title:          c.Title,
		Description:    c.Description,
	}
}

// CheckRequest is the body for POST /duplicate-detection/check.
// Config and Preset are mutually exclusive; with neither the server rule set applies.
type CheckRequest struct {
	Certificate CandidateRequest `json:"certificate"`
	Config      *models.Config   `json:"config,omitempty"`
	Preset      string           `json:"preset,omitempty"`

	resolved *models.Config
}

// Validate implements httputil.Validatable.
func (r *CheckRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Certificate.normalize()
	if err := r.Certificate.validate(); err != nil {
		return err
	}

	r.Preset = strings.TrimSpace(r.Preset)
	switch {
	case r.Config != nil && r.Preset != "":
		return dErrors.New(dErrors.CodeValidation, "config and preset are mutually exclusive")
	case r.Config != nil:
		if err := r.Config.Validate(); err != nil {
			return err
		}
		cfg := r.Config.Clone()
		r.resolved = &cfg
	case r.Preset != "":
		cfg, err := models.PresetConfig(r.Preset)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "unknown preset "+r.Preset)
		}
		r.resolved = &cfg
	}
	return nil
}

// ResolvedConfig returns the config the request asked for, or fallback.
func (r *CheckRequest) ResolvedConfig(fallback models.Config) models.Config {
	if r.resolved != nil {
		return *r.resolved
	}
	return fallback
}

// IssueRequest is the body for POST /duplicate-detection/issue.
type IssueRequest struct {
	CheckRequest
	OverrideReason string `json:"overrideReason,omitempty"`
}

func (r *IssueRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if err := r.CheckRequest.Validate(); err != nil {
		return err
	}
	if r.Certificate.RecipientName == "" || r.Certificate.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "certificate.recipientName and certificate.title are required")
	}
	r.OverrideReason = strings.TrimSpace(r.OverrideReason)
	if len(r.OverrideReason) > maxReasonLen {
		return dErrors.New(dErrors.CodeValidation, "overrideReason is too long")
	}
	return nil
}

// OverrideRequestBody is the body for POST /duplicate-detection/override-request.
type OverrideRequestBody struct {
	CertificateID string `json:"certificateId"`
	Reason        string `json:"reason"`
}

func (r *OverrideRequestBody) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.CertificateID = strings.TrimSpace(r.CertificateID)
	r.Reason = strings.TrimSpace(r.Reason)
	if r.CertificateID == "" {
		return dErrors.New(dErrors.CodeValidation, "certificateId is required")
	}
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	if len(r.Reason) > maxReasonLen {
		return dErrors.New(dErrors.CodeValidation, "reason is too long")
	}
	return nil
}

const dateLayout = "2006-01-02"

// parseReportRange reads startDate and endDate as RFC 3339 timestamps or plain
// dates. A plain endDate covers the whole day.
func parseReportRange(start, end string) (time.Time, time.Time, error) {
	if start == "" || end == "" {
		return time.Time{}, time.Time{}, dErrors.New(dErrors.CodeValidation, "startDate and endDate are required")
	}
	s, _, err := parseInstant(start)
	if err != nil {
		return time.Time{}, time.Time{}, dErrors.New(dErrors.CodeValidation, "startDate must be RFC 3339 or YYYY-MM-DD")
	}
	e, dateOnly, err := parseInstant(end)
	if err != nil {
		return time.Time{}, time.Time{}, dErrors.New(dErrors.CodeValidation, "endDate must be RFC 3339 or YYYY-MM-DD")
	}
	if dateOnly {
		e = e.Add(24*time.Hour - time.Nanosecond)
	}
	return s, e, nil
}

func parseInstant(v string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, false, nil
	}
	t, err := time.Parse(dateLayout, v)
	return t, true, err
}
