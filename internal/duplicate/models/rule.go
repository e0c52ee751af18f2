package models

import (
	"fmt"
	"strings"

	dErrors "certguard/pkg/domain-errors"
)

// Action is the directive a verdict carries back to the issuance layer.
type Action string

const (
	ActionBlock Action = "block"
	ActionWarn  Action = "warn"
	ActionAllow Action = "allow"
)

// ParseAction parses a case-insensitive action name.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if !a.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown action %q", s))
	}
	return a, nil
}

func (a Action) IsValid() bool {
	switch a {
	case ActionBlock, ActionWarn, ActionAllow:
		return true
	}
	return false
}

func (a Action) String() string { return string(a) }

// Field names a comparable certificate attribute.
type Field string

const (
	FieldRecipientEmail Field = "recipientEmail"
	FieldRecipientName  Field = "recipientName"
	FieldTitle          Field = "title"
	FieldIssuerID       Field = "issuerId"
)

func (f Field) IsValid() bool {
	switch f {
	case FieldRecipientEmail, FieldRecipientName, FieldTitle, FieldIssuerID:
		return true
	}
	return false
}

// Rule is a named duplicate-detection policy.
//
// Invariants:
//   - Threshold lies in [0,1]
//   - CheckFields is non-empty and contains only known fields
//   - TimeWindowDays, when set, is positive
type Rule struct {
	ID             string  `json:"id" yaml:"id" mapstructure:"id"`
	Name           string  `json:"name" yaml:"name" mapstructure:"name"`
	Description    string  `json:"description" yaml:"description" mapstructure:"description"`
	Enabled        bool    `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Action         Action  `json:"action" yaml:"action" mapstructure:"action"`
	Threshold      float64 `json:"threshold" yaml:"threshold" mapstructure:"threshold"`
	CheckFields    []Field `json:"checkFields" yaml:"checkFields" mapstructure:"checkFields"`
	FuzzyMatching  bool    `json:"fuzzyMatching" yaml:"fuzzyMatching" mapstructure:"fuzzyMatching"`
	TimeWindowDays *int    `json:"timeWindowDays,omitempty" yaml:"timeWindowDays,omitempty" mapstructure:"timeWindowDays"`
	Priority       int     `json:"priority" yaml:"priority" mapstructure:"priority"`
}

// Validate checks the rule invariants. Errors carry CodeValidation.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return dErrors.New(dErrors.CodeValidation, "rule id is required")
	}
	if r.Threshold < 0 || r.Threshold > 1 {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("rule %s: threshold %v outside [0,1]", r.ID, r.Threshold))
	}
	if len(r.CheckFields) == 0 {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("rule %s: checkFields must not be empty", r.ID))
	}
	for _, f := range r.CheckFields {
		if !f.IsValid() {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("rule %s: unknown check field %q", r.ID, f))
		}
	}
	if !r.Action.IsValid() {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("rule %s: unknown action %q", r.ID, r.Action))
	}
	if r.TimeWindowDays != nil && *r.TimeWindowDays <= 0 {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("rule %s: timeWindowDays must be positive", r.ID))
	}
	return nil
}

// Config is the immutable rule configuration passed into every check.
type Config struct {
	Enabled              bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	DefaultAction        Action `json:"defaultAction" yaml:"defaultAction" mapstructure:"defaultAction"`
	Rules                []Rule `json:"rules" yaml:"rules" mapstructure:"rules"`
	AllowOverride        bool   `json:"allowOverride" yaml:"allowOverride" mapstructure:"allowOverride"`
	RequireAdminApproval bool   `json:"requireAdminApproval" yaml:"requireAdminApproval" mapstructure:"requireAdminApproval"`
	LogDuplicates        bool   `json:"logDuplicates" yaml:"logDuplicates" mapstructure:"logDuplicates"`
}

// Validate rejects malformed configuration before any scan runs.
func (c Config) Validate() error {
	if c.DefaultAction != "" && !c.DefaultAction.IsValid() {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown default action %q", c.DefaultAction))
	}
	seen := make(map[string]struct{}, len(c.Rules))
	for _, r := range c.Rules {
		if err := r.Validate(); err != nil {
			return err
		}
		if _, dup := seen[r.ID]; dup {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("duplicate rule id %q", r.ID))
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}

// EnabledRules returns the enabled rules in configuration order.
func (c Config) EnabledRules() []Rule {
	out := make([]Rule, 0, len(c.Rules))
	for _, r := range c.Rules {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out
}

// Clone returns a deep copy so callers can derive variants without aliasing.
func (c Config) Clone() Config {
	cp := c
	cp.Rules = make([]Rule, len(c.Rules))
	for i, r := range c.Rules {
		r.CheckFields = append([]Field(nil), r.CheckFields...)
		if r.TimeWindowDays != nil {
			days := *r.TimeWindowDays
			r.TimeWindowDays = &days
		}
		cp.Rules[i] = r
	}
	return cp
}
